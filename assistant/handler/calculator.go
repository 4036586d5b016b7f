package handler

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

// Accepts digits, whitespace, decimal points, operators, and parentheses.
var expressionPattern = regexp.MustCompile(`^[\d\s\+\-\*/%\^\(\)\.]+$`)

// Spoken operator forms, replaced before validation. Order matters:
// "percent of" must go before the bare "%" and "of" rules.
var spokenForms = []struct {
	pattern *regexp.Regexp
	with    string
}{
	{regexp.MustCompile(`\bdivided\s+by\b`), "/"},
	{regexp.MustCompile(`\bpercent\s+of\b`), "* 0.01 *"},
	{regexp.MustCompile(`\bplus\b`), "+"},
	{regexp.MustCompile(`\bminus\b`), "-"},
	{regexp.MustCompile(`\btimes\b`), "*"},
	{regexp.MustCompile(`\bx\b`), "*"},
}

var ofPattern = regexp.MustCompile(`\bof\b`)

// CalculatorHandler evaluates restricted arithmetic. No store access; the
// grammar never reaches an interpreter or the shell.
type CalculatorHandler struct{}

func NewCalculator() *CalculatorHandler {
	return &CalculatorHandler{}
}

func (h *CalculatorHandler) Evaluate(ctx context.Context, p contractx.CalculateParams) (contractx.Result, error) {
	raw := strings.TrimSpace(p.Expression)
	expression := normalizeExpression(raw)

	if err := validateExpression(expression); err != nil {
		return contractx.Result{}, fmt.Errorf("%w: %v", contractx.ErrInvalidExpression, err)
	}
	value, err := evaluateExpression(expression)
	if err != nil {
		return contractx.Result{}, fmt.Errorf("%w: %v", contractx.ErrInvalidExpression, err)
	}

	return contractx.Result{
		Payload: contractx.CalculationPayload{
			Expression: raw,
			Value:      value,
		},
	}, nil
}

// normalizeExpression lowers spoken operator words onto the symbolic
// grammar: "2 plus 2" -> "2 + 2", "15% of 200" -> "15 * 0.01 * 200".
func normalizeExpression(raw string) string {
	expr := strings.ToLower(strings.TrimSpace(raw))
	for _, form := range spokenForms {
		expr = form.pattern.ReplaceAllString(expr, form.with)
	}
	expr = strings.ReplaceAll(expr, "%", " * 0.01 ")
	expr = ofPattern.ReplaceAllString(expr, "*")
	return strings.TrimSpace(expr)
}

func validateExpression(expression string) error {
	if expression == "" {
		return fmt.Errorf("expression is empty")
	}
	if !expressionPattern.MatchString(expression) {
		return fmt.Errorf("expression contains invalid characters")
	}

	balance := 0
	for _, ch := range expression {
		switch ch {
		case '(':
			balance++
		case ')':
			balance--
			if balance < 0 {
				return fmt.Errorf("expression has unbalanced parentheses")
			}
		}
	}
	if balance != 0 {
		return fmt.Errorf("expression has unbalanced parentheses")
	}
	return nil
}

func evaluateExpression(expression string) (float64, error) {
	p := &exprParser{input: expression}
	value, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.hasNext() {
		return 0, fmt.Errorf("unexpected token at position %d", p.pos)
	}
	return value, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.match('+'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case p.match('-'):
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseTerm() (float64, error) {
	left, err := p.parsePower()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()
		switch {
		case p.match('*'):
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			left *= right
		case p.match('/'):
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		case p.match('%'):
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("modulo by zero")
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parsePower() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}

	p.skipSpaces()
	if p.match('^') {
		right, err := p.parsePower()
		if err != nil {
			return 0, err
		}
		return math.Pow(left, right), nil
	}
	return left, nil
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.match('+') {
		return p.parseUnary()
	}
	if p.match('-') {
		value, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -value, nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (float64, error) {
	p.skipSpaces()
	if p.match('(') {
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if !p.match(')') {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}
		return value, nil
	}
	return p.parseNumber()
}

func (p *exprParser) parseNumber() (float64, error) {
	p.skipSpaces()
	start := p.pos
	hasDigit := false
	hasDot := false

	for p.hasNext() {
		ch := p.peek()
		switch {
		case ch >= '0' && ch <= '9':
			hasDigit = true
			p.pos++
		case ch == '.':
			if hasDot {
				return 0, fmt.Errorf("invalid number format at position %d", p.pos)
			}
			hasDot = true
			p.pos++
		default:
			goto done
		}
	}

done:
	if !hasDigit {
		return 0, fmt.Errorf("expected number at position %d", start)
	}

	raw := p.input[start:p.pos]
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return value, nil
}

func (p *exprParser) skipSpaces() {
	for p.hasNext() && p.peek() == ' ' {
		p.pos++
	}
}

func (p *exprParser) hasNext() bool {
	return p.pos < len(p.input)
}

func (p *exprParser) peek() byte {
	return p.input[p.pos]
}

func (p *exprParser) match(expected byte) bool {
	if p.hasNext() && p.peek() == expected {
		p.pos++
		return true
	}
	return false
}
