package model

import (
	"fmt"
	"time"
)

// MergeMode controls how multiple timesheet entries of the same user and
// day are collapsed into a single reported record.
type MergeMode string

const (
	// MergeModeNone keeps every entry as its own record.
	MergeModeNone MergeMode = "NONE"
	// MergeModeMerge collapses a user's entries per day and concatenates
	// their descriptions.
	MergeModeMerge MergeMode = "MERGE"
	// MergeModeFirstOfDay collapses entries and keeps the description of
	// the earliest entry of the day.
	MergeModeFirstOfDay MergeMode = "MERGE_USE_FIRST_OF_DAY"
	// MergeModeLastOfDay collapses entries and keeps the description of
	// the latest entry of the day.
	MergeModeLastOfDay MergeMode = "MERGE_USE_LAST_OF_DAY"
)

// ParseMergeMode converts a stored string into a MergeMode. Unknown values
// are rejected so that corrupt configuration rows surface early.
func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(s) {
	case MergeModeNone, MergeModeMerge, MergeModeFirstOfDay, MergeModeLastOfDay:
		return MergeMode(s), nil
	}
	return "", fmt.Errorf("unknown merge mode: %q", s)
}

// ScopeKind discriminates the two sharing scopes.
type ScopeKind string

const (
	ScopeProject  ScopeKind = "PROJECT"
	ScopeCustomer ScopeKind = "CUSTOMER"
)

// Scope identifies what a share exposes: a single project or every project
// of one customer. Exactly one of the two variants is ever set; use the
// constructors instead of filling the struct by hand.
type Scope struct {
	Kind       ScopeKind
	ProjectID  uint64 // set when Kind == ScopeProject
	CustomerID uint64 // set when Kind == ScopeCustomer
}

// ProjectScope returns a scope covering a single project.
func ProjectScope(projectID uint64) Scope {
	return Scope{Kind: ScopeProject, ProjectID: projectID}
}

// CustomerScope returns a scope covering all projects of a customer.
func CustomerScope(customerID uint64) Scope {
	return Scope{Kind: ScopeCustomer, CustomerID: customerID}
}

// Valid reports whether the scope carries a resolvable target.
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeProject:
		return s.ProjectID != 0
	case ScopeCustomer:
		return s.CustomerID != 0
	}
	return false
}

// SharedReport is the persisted configuration of one public report link.
// The share key addresses the report, the optional bcrypt password hash
// gates anonymous access, and the visibility flags are presentation hints
// read by the view layer.
//
// Fields:
//
//	ID                 - primary key identifier.
//	Scope              - project or customer target of the share.
//	ShareKey           - unguessable alphanumeric key, max 20 chars,
//	                     unique per scope target.
//	PasswordHash       - bcrypt hash; empty means no password required.
//	MergeMode          - record merge policy for the view.
//	EntryUserVisible   - show the user column in the entry table.
//	EntryRateVisible   - show rate columns in the entry table.
//	AnnualChartVisible - render the per-month chart.
//	MonthlyChartVisible- render the per-day chart.
//	BudgetStatsVisible - render money budget statistics.
//	TimeBudgetStatsVisible - render time budget statistics.
type SharedReport struct {
	ID                     uint64
	Scope                  Scope
	ShareKey               string
	PasswordHash           string
	MergeMode              MergeMode
	EntryUserVisible       bool
	EntryRateVisible       bool
	AnnualChartVisible     bool
	MonthlyChartVisible    bool
	BudgetStatsVisible     bool
	TimeBudgetStatsVisible bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// HasPassword reports whether anonymous access requires a password.
func (s *SharedReport) HasPassword() bool {
	return s.PasswordHash != ""
}
