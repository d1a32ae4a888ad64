package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentDigital PaymentMethod = "digital"
	PaymentBank    PaymentMethod = "bank"
	PaymentOther   PaymentMethod = "other"
)

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

const (
	DateFormatUS  DateFormat = "MM/DD/YYYY"
	DateFormatEU  DateFormat = "DD/MM/YYYY"
	DateFormatISO DateFormat = "YYYY-MM-DD"
)

// StorageVersion is the current schema version of the persisted document.
const StorageVersion = 2

type (
	Period        string
	PaymentMethod string
	Theme         string
	DateFormat    string

	// Expense is a single recorded spending entry. Identity (ID) is
	// immutable once created; amount, description and category are
	// mutable via update.
	Expense struct {
		ID          string        `json:"id"`
		UserID      string        `json:"userId"`
		Amount      Money         `json:"amount"`
		Description string        `json:"description"`
		CategoryID  string        `json:"categoryId"`
		Date        Date          `json:"date"`
		CreatedAt   time.Time     `json:"createdAt"`
		UpdatedAt   time.Time     `json:"updatedAt"`
		Merchant    string        `json:"merchant,omitempty"`
		Payment     PaymentMethod `json:"paymentMethod,omitempty"`
		Notes       string        `json:"notes,omitempty"`
		Tags        []string      `json:"tags,omitempty"`
	}

	// Category groups expenses. A nil UserID marks a shared system
	// default; defaults are never physically deleted, only converted to
	// user-owned copies on edit.
	Category struct {
		ID           string    `json:"id"`
		UserID       *string   `json:"userId"`
		Name         string    `json:"name"`
		Icon         string    `json:"icon"`
		Color        string    `json:"color"`
		CreatedAt    time.Time `json:"createdAt"`
		ParentID     string    `json:"parentId,omitempty"`
		Budget       *Money    `json:"budget,omitempty"`
		BudgetPeriod Period    `json:"budgetPeriod,omitempty"`
	}

	// Budget is a spending limit over a period. A nil CategoryID means
	// the budget applies across all categories. Spent is denormalized
	// and recomputed from expenses, never authoritative.
	Budget struct {
		ID         string    `json:"id"`
		UserID     string    `json:"userId"`
		CategoryID *string   `json:"categoryId"`
		Amount     Money     `json:"amount"`
		Period     Period    `json:"period"`
		StartDate  Date      `json:"startDate"`
		EndDate    *Date     `json:"endDate,omitempty"`
		Spent      Money     `json:"spent"`
		CreatedAt  time.Time `json:"createdAt"`
		UpdatedAt  time.Time `json:"updatedAt"`
	}

	// Preferences is the per-installation settings singleton.
	Preferences struct {
		Currency   string     `json:"currency"`
		DateFormat DateFormat `json:"dateFormat"`
		Theme      Theme      `json:"theme"`
		Language   string     `json:"language"`
	}

	// StorageData is the flat keyed record the local store persists.
	StorageData struct {
		Expenses    []Expense   `json:"expenses"`
		Categories  []Category  `json:"categories"`
		Budgets     []Budget    `json:"budgets"`
		Preferences Preferences `json:"preferences"`
		Version     int         `json:"version"`
		LastUpdated time.Time   `json:"lastUpdated"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidPeriod    = errors.New("invalid period")
)

// DefaultPreferences returns the preferences used before the user changes
// anything.
func DefaultPreferences() Preferences {
	return Preferences{
		Currency:   "USD",
		DateFormat: DateFormatUS,
		Theme:      ThemeDark,
		Language:   "en",
	}
}

// DefaultStorageData returns an empty document at the current version.
func DefaultStorageData() StorageData {
	return StorageData{
		Expenses:    []Expense{},
		Categories:  []Category{},
		Budgets:     []Budget{},
		Preferences: DefaultPreferences(),
		Version:     StorageVersion,
		LastUpdated: time.Now().UTC(),
	}
}

func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (pm PaymentMethod) Valid() bool {
	switch pm {
	case "", PaymentCash, PaymentCard, PaymentDigital, PaymentBank, PaymentOther:
		return true
	}
	return false
}

// IsDefault reports whether the category is a shared system default.
func (c Category) IsDefault() bool {
	return c.UserID == nil
}

// Overall reports whether the budget applies across all categories.
func (b Budget) Overall() bool {
	return b.CategoryID == nil
}

// ValidateExpense returns a list of human-readable problems. An empty list
// means the expense is acceptable. Lower layers never fail on bad input;
// callers decide what to do with the messages.
func ValidateExpense(e Expense) []string {
	var problems []string
	if e.Amount.Cents <= 0 {
		problems = append(problems, "Amount must be greater than 0")
	}
	if strings.TrimSpace(e.Description) == "" {
		problems = append(problems, "Description is required")
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		problems = append(problems, "Category is required")
	}
	if e.Date.IsZero() {
		problems = append(problems, "Date is required")
	}
	if !e.Payment.Valid() {
		problems = append(problems, "Unknown payment method")
	}
	return problems
}

// ValidateCategory returns a list of human-readable problems.
func ValidateCategory(c Category) []string {
	var problems []string
	if strings.TrimSpace(c.Name) == "" {
		problems = append(problems, "Name is required")
	}
	if c.Budget != nil && c.Budget.Cents < 0 {
		problems = append(problems, "Budget cannot be negative")
	}
	if c.BudgetPeriod != "" && !c.BudgetPeriod.Valid() {
		problems = append(problems, "Unknown budget period")
	}
	return problems
}

// ValidateBudget returns a list of human-readable problems.
func ValidateBudget(b Budget) []string {
	var problems []string
	if b.Amount.Cents <= 0 {
		problems = append(problems, "Amount must be greater than 0")
	}
	if !b.Period.Valid() {
		problems = append(problems, "Unknown period")
	}
	if b.EndDate != nil && b.EndDate.Before(b.StartDate.Time) {
		problems = append(problems, "End date must be after start date")
	}
	return problems
}
