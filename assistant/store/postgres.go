package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/Aria-Voice-Assistant/assistant/contract"
)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

const (
	defaultListLimit = 5
	maxListLimit     = 50
)

type memoryRow struct {
	bun.BaseModel `bun:"table:memories,alias:mem"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Text      string    `bun:"text,notnull"`
	Category  string    `bun:"category,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type calendarEventRow struct {
	bun.BaseModel `bun:"table:calendar_events,alias:evt"`

	ID        string    `bun:"id,pk"`
	UserID    string    `bun:"user_id,notnull"`
	Title     string    `bun:"title,notnull"`
	Start     time.Time `bun:"start_time,notnull"`
	End       time.Time `bun:"end_time,nullzero"`
	Location  string    `bun:"location"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

type budgetPeriodRow struct {
	bun.BaseModel `bun:"table:budget_periods,alias:bp"`

	ID             string    `bun:"id,pk"`
	UserID         string    `bun:"user_id,notnull"`
	MonthlyAmount  float64   `bun:"monthly_amount,notnull"`
	DailyAllowance float64   `bun:"daily_allowance,notnull"`
	PeriodStart    time.Time `bun:"period_start,notnull"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
}

type expenseRow struct {
	bun.BaseModel `bun:"table:expenses,alias:exp"`

	ID          string    `bun:"id,pk"`
	UserID      string    `bun:"user_id,notnull"`
	Amount      float64   `bun:"amount,notnull"`
	Description string    `bun:"description"`
	Category    string    `bun:"category,notnull"`
	SpentAt     time.Time `bun:"spent_at,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type homeworkItemRow struct {
	bun.BaseModel `bun:"table:homework_items,alias:hw"`

	ID          string    `bun:"id,pk"`
	UserID      string    `bun:"user_id,notnull"`
	Subject     string    `bun:"subject,notnull"`
	Description string    `bun:"description,notnull"`
	DueDate     time.Time `bun:"due_date,nullzero"`
	Completed   bool      `bun:"completed,notnull,default:false"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

// PostgresStore persists user-scoped assistant documents via bun.
type PostgresStore struct {
	db    *bun.DB
	now   func() time.Time
	newID func() string
}

var _ contractx.Store = (*PostgresStore)(nil)

func NewPostgres(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresStore{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}, nil
}

// Init creates the schema. Safe to run on every startup.
func (s *PostgresStore) Init(ctx context.Context) error {
	models := []any{
		(*memoryRow)(nil),
		(*calendarEventRow)(nil),
		(*budgetPeriodRow)(nil),
		(*expenseRow)(nil),
		(*homeworkItemRow)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("%w: create table for %T: %v", contractx.ErrPersistence, model, err)
		}
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

/* -------------------------------- Memories ------------------------------- */

func (s *PostgresStore) SaveMemory(ctx context.Context, m contractx.Memory) (contractx.Memory, error) {
	row := &memoryRow{
		ID:        s.newID(),
		UserID:    m.UserID,
		Text:      m.Text,
		Category:  contractx.NormalizeMemoryCategory(m.Category),
		CreatedAt: s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return contractx.Memory{}, fmt.Errorf("%w: insert memory: %v", contractx.ErrPersistence, err)
	}
	return row.toContract(), nil
}

func (s *PostgresStore) RecentMemories(ctx context.Context, userID, category string, limit int) ([]contractx.Memory, error) {
	var rows []memoryRow
	q := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(clampLimit(limit, defaultListLimit))
	if c := strings.TrimSpace(category); c != "" {
		q = q.Where("category = ?", contractx.NormalizeMemoryCategory(c))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list memories: %v", contractx.ErrPersistence, err)
	}

	out := make([]contractx.Memory, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toContract())
	}
	return out, nil
}

/* --------------------------------- Events -------------------------------- */

func (s *PostgresStore) SaveEvent(ctx context.Context, e contractx.CalendarEvent) (contractx.CalendarEvent, error) {
	row := &calendarEventRow{
		ID:        s.newID(),
		UserID:    e.UserID,
		Title:     e.Title,
		Start:     e.Start.UTC(),
		Location:  e.Location,
		CreatedAt: s.now().UTC(),
	}
	if !e.End.IsZero() {
		row.End = e.End.UTC()
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return contractx.CalendarEvent{}, fmt.Errorf("%w: insert event: %v", contractx.ErrPersistence, err)
	}
	return row.toContract(), nil
}

func (s *PostgresStore) UpcomingEvents(ctx context.Context, userID string, from time.Time, limit int) ([]contractx.CalendarEvent, error) {
	var rows []calendarEventRow
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("start_time >= ?", from.UTC()).
		Order("start_time ASC").
		Limit(clampLimit(limit, defaultListLimit)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %v", contractx.ErrPersistence, err)
	}

	out := make([]contractx.CalendarEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toContract())
	}
	return out, nil
}

/* --------------------------------- Budget -------------------------------- */

// ReplaceBudget swaps the user's active period in one transaction; there is
// never more than one period per user.
func (s *PostgresStore) ReplaceBudget(ctx context.Context, p contractx.BudgetPeriod) (contractx.BudgetPeriod, error) {
	row := &budgetPeriodRow{
		ID:             s.newID(),
		UserID:         p.UserID,
		MonthlyAmount:  p.MonthlyAmount,
		DailyAllowance: p.DailyAllowance,
		PeriodStart:    p.PeriodStart.UTC(),
		CreatedAt:      s.now().UTC(),
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*budgetPeriodRow)(nil)).
			Where("user_id = ?", p.UserID).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(row).Exec(ctx)
		return err
	})
	if err != nil {
		return contractx.BudgetPeriod{}, fmt.Errorf("%w: replace budget: %v", contractx.ErrPersistence, err)
	}
	return row.toContract(), nil
}

func (s *PostgresStore) ActiveBudget(ctx context.Context, userID string) (contractx.BudgetPeriod, error) {
	var row budgetPeriodRow
	err := s.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.BudgetPeriod{}, fmt.Errorf("%w: no budget period for user", contractx.ErrNotFound)
	}
	if err != nil {
		return contractx.BudgetPeriod{}, fmt.Errorf("%w: load budget: %v", contractx.ErrPersistence, err)
	}
	return row.toContract(), nil
}

func (s *PostgresStore) SaveExpense(ctx context.Context, e contractx.Expense) (contractx.Expense, error) {
	spentAt := e.SpentAt
	if spentAt.IsZero() {
		spentAt = s.now()
	}
	row := &expenseRow{
		ID:          s.newID(),
		UserID:      e.UserID,
		Amount:      e.Amount,
		Description: e.Description,
		Category:    contractx.NormalizeExpenseCategory(e.Category),
		SpentAt:     spentAt.UTC(),
		CreatedAt:   s.now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return contractx.Expense{}, fmt.Errorf("%w: insert expense: %v", contractx.ErrPersistence, err)
	}
	return row.toContract(), nil
}

func (s *PostgresStore) ExpensesSince(ctx context.Context, userID string, since time.Time) ([]contractx.Expense, error) {
	var rows []expenseRow
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Where("spent_at >= ?", since.UTC()).
		Order("spent_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list expenses: %v", contractx.ErrPersistence, err)
	}

	out := make([]contractx.Expense, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toContract())
	}
	return out, nil
}

/* -------------------------------- Homework ------------------------------- */

func (s *PostgresStore) SaveHomework(ctx context.Context, h contractx.HomeworkItem) (contractx.HomeworkItem, error) {
	row := &homeworkItemRow{
		ID:          s.newID(),
		UserID:      h.UserID,
		Subject:     h.Subject,
		Description: h.Description,
		Completed:   false,
		CreatedAt:   s.now().UTC(),
	}
	if !h.DueDate.IsZero() {
		row.DueDate = h.DueDate.UTC()
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return contractx.HomeworkItem{}, fmt.Errorf("%w: insert homework: %v", contractx.ErrPersistence, err)
	}
	return row.toContract(), nil
}

func (s *PostgresStore) ListHomework(ctx context.Context, userID, subject string, includeCompleted bool, limit int) ([]contractx.HomeworkItem, error) {
	var rows []homeworkItemRow
	q := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		OrderExpr("due_date ASC NULLS LAST").
		Order("created_at ASC").
		Limit(clampLimit(limit, 10))
	if !includeCompleted {
		q = q.Where("completed = FALSE")
	}
	if sub := strings.TrimSpace(subject); sub != "" {
		q = q.Where("lower(subject) LIKE ?", "%"+strings.ToLower(sub)+"%")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list homework: %v", contractx.ErrPersistence, err)
	}

	out := make([]contractx.HomeworkItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toContract())
	}
	return out, nil
}

// CompleteHomework flips the newest pending item whose subject contains the
// given text. ErrNotFound when nothing matches; the caller turns that into
// a clarifying reply.
func (s *PostgresStore) CompleteHomework(ctx context.Context, userID, subject string) (contractx.HomeworkItem, error) {
	var row homeworkItemRow
	err := s.db.NewSelect().Model(&row).
		Where("user_id = ?", userID).
		Where("completed = FALSE").
		Where("lower(subject) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(subject))+"%").
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.HomeworkItem{}, fmt.Errorf("%w: no pending homework matching %q", contractx.ErrNotFound, subject)
	}
	if err != nil {
		return contractx.HomeworkItem{}, fmt.Errorf("%w: find homework: %v", contractx.ErrPersistence, err)
	}

	row.Completed = true
	if _, err := s.db.NewUpdate().Model(&row).Column("completed").WherePK().Exec(ctx); err != nil {
		return contractx.HomeworkItem{}, fmt.Errorf("%w: complete homework: %v", contractx.ErrPersistence, err)
	}
	return row.toContract(), nil
}

/* -------------------------------- Snapshot ------------------------------- */

// Snapshot backs GET /user-data: a bounded read-only view of everything the
// user has stored. No dispatch involved.
func (s *PostgresStore) Snapshot(ctx context.Context, userID string) (contractx.UserData, error) {
	data := contractx.UserData{UserID: userID}

	memories, err := s.RecentMemories(ctx, userID, "", 20)
	if err != nil {
		return contractx.UserData{}, err
	}
	data.Memories = memories

	events, err := s.UpcomingEvents(ctx, userID, s.now(), 10)
	if err != nil {
		return contractx.UserData{}, err
	}
	data.Events = events

	expenseHorizon := s.now().AddDate(0, 0, -30)
	budget, err := s.ActiveBudget(ctx, userID)
	switch {
	case err == nil:
		data.Budget = &budget
		expenseHorizon = budget.PeriodStart
	case errors.Is(err, contractx.ErrNotFound):
		// no budget set; keep the 30-day expense window
	default:
		return contractx.UserData{}, err
	}

	expenses, err := s.ExpensesSince(ctx, userID, expenseHorizon)
	if err != nil {
		return contractx.UserData{}, err
	}
	data.Expenses = expenses

	homework, err := s.ListHomework(ctx, userID, "", false, 20)
	if err != nil {
		return contractx.UserData{}, err
	}
	data.Homework = homework

	return data, nil
}

/* -------------------------------- Helpers -------------------------------- */

func clampLimit(n, fallback int) int {
	if n <= 0 {
		return fallback
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func (r *memoryRow) toContract() contractx.Memory {
	return contractx.Memory{
		ID:        r.ID,
		UserID:    r.UserID,
		Text:      r.Text,
		Category:  r.Category,
		CreatedAt: r.CreatedAt,
	}
}

func (r *calendarEventRow) toContract() contractx.CalendarEvent {
	return contractx.CalendarEvent{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Start:     r.Start,
		End:       r.End,
		Location:  r.Location,
		CreatedAt: r.CreatedAt,
	}
}

func (r *budgetPeriodRow) toContract() contractx.BudgetPeriod {
	return contractx.BudgetPeriod{
		ID:             r.ID,
		UserID:         r.UserID,
		MonthlyAmount:  r.MonthlyAmount,
		DailyAllowance: r.DailyAllowance,
		PeriodStart:    r.PeriodStart,
		CreatedAt:      r.CreatedAt,
	}
}

func (r *expenseRow) toContract() contractx.Expense {
	return contractx.Expense{
		ID:          r.ID,
		UserID:      r.UserID,
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		SpentAt:     r.SpentAt,
		CreatedAt:   r.CreatedAt,
	}
}

func (r *homeworkItemRow) toContract() contractx.HomeworkItem {
	return contractx.HomeworkItem{
		ID:          r.ID,
		UserID:      r.UserID,
		Subject:     r.Subject,
		Description: r.Description,
		DueDate:     r.DueDate,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt,
	}
}
