// Package report implements the read-only reporting core behind shared
// timesheet links: merging raw timesheet entries into per-user/per-day
// records, chart statistics and the assembled view model.
package report

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/timekeep/timesheet-share/internal/model"
)

// ErrInvalidMergeMode is returned by BuildRecords for a merge mode outside
// the known set. Handlers should treat it as a data-integrity failure.
var ErrInvalidMergeMode = errors.New("invalid merge mode")

// RateBucket accumulates the duration worked at one distinct hourly rate.
type RateBucket struct {
	HourlyRate float64
	Duration   int64
}

// TimeRecord is one reported row of a shared view. Depending on the merge
// mode it represents a single timesheet entry or all entries of one user
// on one day folded together.
type TimeRecord struct {
	Date        time.Time
	User        string
	Description string
	HourlyRates []RateBucket
	Rate        float64
	Duration    int64

	mode       model.MergeMode
	firstBegin time.Time
	lastBegin  time.Time
}

// HasDifferentHourlyRates reports whether the merged entries were billed
// with more than one hourly rate.
func (r *TimeRecord) HasDifferentHourlyRates() bool {
	return len(r.HourlyRates) > 1
}

func newTimeRecord(e model.TimeEntry, mode model.MergeMode) *TimeRecord {
	r := &TimeRecord{
		Date:       e.Begin,
		User:       e.UserName,
		mode:       mode,
		firstBegin: e.Begin,
		lastBegin:  e.Begin,
	}
	r.addHourlyRate(e.HourlyRate, e.Duration)
	r.Rate += e.Rate
	r.Duration += e.Duration
	// The first entry always seeds the description, whatever the mode.
	r.Description = e.Description
	return r
}

// add folds another entry of the same user and day into the record.
func (r *TimeRecord) add(e model.TimeEntry) {
	r.addHourlyRate(e.HourlyRate, e.Duration)
	r.Rate += e.Rate
	r.Duration += e.Duration
	r.mergeDescription(e)

	if e.Begin.Before(r.firstBegin) {
		r.firstBegin = e.Begin
	}
	if e.Begin.After(r.lastBegin) {
		r.lastBegin = e.Begin
	}
}

// addHourlyRate books duration onto the bucket with the exact same hourly
// rate, appending a new bucket on first sight. Entries without a positive
// rate and duration stay out of the breakdown but still count into the
// record totals.
func (r *TimeRecord) addHourlyRate(hourlyRate float64, duration int64) {
	if hourlyRate <= 0 || duration <= 0 {
		return
	}
	for i := range r.HourlyRates {
		if r.HourlyRates[i].HourlyRate == hourlyRate {
			r.HourlyRates[i].Duration += duration
			return
		}
	}
	r.HourlyRates = append(r.HourlyRates, RateBucket{HourlyRate: hourlyRate, Duration: duration})
}

func (r *TimeRecord) mergeDescription(e model.TimeEntry) {
	switch r.mode {
	case model.MergeModeMerge:
		if e.Description == "" {
			return
		}
		if r.Description == "" {
			r.Description = e.Description
		} else {
			r.Description += "\n" + e.Description
		}
	case model.MergeModeFirstOfDay:
		// Compare against the earliest begin seen so far, not insertion
		// order, so out-of-order delivery yields the same result.
		if e.Begin.Before(r.firstBegin) {
			r.Description = e.Description
		}
	case model.MergeModeLastOfDay:
		if e.Begin.After(r.lastBegin) {
			r.Description = e.Description
		}
	}
}

// sortable wraps a record with its precomputed ordering keys.
type sortable struct {
	day  string
	user string
	sub  string
	rec  *TimeRecord
}

// BuildRecords collapses raw timesheet entries into reported time records
// according to the merge mode. Records are grouped by calendar day and
// user; with MergeModeNone every entry stays its own record. The result is
// ordered by day, then by a normalized form of the user's display name,
// then by time of day. Input order does not matter.
func BuildRecords(entries []model.TimeEntry, mode model.MergeMode) ([]*TimeRecord, error) {
	switch mode {
	case model.MergeModeNone, model.MergeModeMerge, model.MergeModeFirstOfDay, model.MergeModeLastOfDay:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMergeMode, mode)
	}

	groups := make(map[[2]string]*sortable)
	list := make([]*sortable, 0, len(entries))

	for i, e := range entries {
		day := e.Begin.Format("2006-01-02")
		user := normalizeUserKey(e.UserName)

		if mode == model.MergeModeNone {
			// Index suffix keeps same-second entries distinct and stable.
			sub := fmt.Sprintf("%s-%06d", e.Begin.Format("15-04-05"), i)
			list = append(list, &sortable{day: day, user: user, sub: sub, rec: newTimeRecord(e, mode)})
			continue
		}

		key := [2]string{day, user}
		if g, ok := groups[key]; ok {
			g.rec.add(e)
			continue
		}
		g := &sortable{day: day, user: user, rec: newTimeRecord(e, mode)}
		groups[key] = g
		list = append(list, g)
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.day != b.day {
			return a.day < b.day
		}
		if a.user != b.user {
			return a.user < b.user
		}
		return a.sub < b.sub
	})

	out := make([]*TimeRecord, len(list))
	for i, g := range list {
		out[i] = g.rec
	}
	return out, nil
}

// normalizeUserKey lowercases a display name and strips everything outside
// [a-z0-9]. It is a deterministic grouping and ordering key, not a display
// value.
func normalizeUserKey(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			out = append(out, r)
		}
	}
	return string(out)
}
