package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/composer.txt
	composerRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier string
	Composer   string
}

// LoadPromptSet returns the embedded prompts with surrounding whitespace
// trimmed. Safe for concurrent use.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
		Composer:   strings.TrimSpace(composerRaw),
	}
}
