package contract

import "strings"

// MemoryCategories returns the closed set of memory categories the classifier
// is prompted with. Labels outside the set fold onto CategoryGeneral instead
// of failing the turn; the model occasionally invents a near-miss.
func MemoryCategories() []string {
	return []string{
		"personal_info",
		"preferences",
		"goals",
		"important_dates",
		"contacts",
		"work_school",
		CategoryGeneral,
	}
}

// ExpenseCategories returns the closed set of expense categories the
// classifier is prompted with.
func ExpenseCategories() []string {
	return []string{
		"food",
		"transportation",
		"entertainment",
		"shopping",
		"groceries",
		"utilities",
		"health",
		CategoryGeneral,
	}
}

// NormalizeMemoryCategory lowercases a raw label and folds anything outside
// the memory set onto CategoryGeneral. Applied on both writes and query
// filters, so an unknown label finds the rows it stored.
func NormalizeMemoryCategory(raw string) string {
	return normalizeCategory(raw, MemoryCategories())
}

// NormalizeExpenseCategory lowercases a raw label and folds anything outside
// the expense set onto CategoryGeneral.
func NormalizeExpenseCategory(raw string) string {
	return normalizeCategory(raw, ExpenseCategories())
}

func normalizeCategory(raw string, known []string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	for _, k := range known {
		if c == k {
			return c
		}
	}
	return CategoryGeneral
}
