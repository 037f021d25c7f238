package model

import "time"

// TimeEntry is one raw timesheet row as delivered by the timesheet store,
// already joined with the user's display name. Duration and rates may be
// zero when the underlying columns are NULL.
//
// Fields:
//
//	ID          - primary key identifier.
//	ProjectID   - project the time was booked on.
//	UserID      - author of the entry.
//	UserName    - display name of the author.
//	Begin       - start timestamp of the entry.
//	Duration    - worked time in seconds.
//	Rate        - total rate of the entry.
//	HourlyRate  - hourly rate the entry was billed with.
//	Description - free-text description, possibly empty.
type TimeEntry struct {
	ID          uint64
	ProjectID   uint64
	UserID      uint64
	UserName    string
	Begin       time.Time
	Duration    int64
	Rate        float64
	HourlyRate  float64
	Description string
}

// PeriodSum is one row of a grouped duration/rate aggregation, keyed by
// month (annual grouping) or day (monthly grouping).
type PeriodSum struct {
	Month    int
	Day      int
	Duration int64
	Rate     float64
}
