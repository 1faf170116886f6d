package domain

import "time"

// AuditFields holds standard audit timestamps for mutable domain entities.
// cashkeep has no user accounts (single-tenant, no auth entities per spec),
// so unlike the ledger this embeds no per-field "who" attribution.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Day is a calendar day in the fixed zone (UTC day). All comparisons and
// storage strip time-of-day so that "posted on 2025-01-03" is stable
// regardless of what wall-clock time the source happened to record.
type Day struct {
	time.Time
}

// NewDay truncates t to a UTC calendar day.
func NewDay(t time.Time) Day {
	u := t.UTC()
	return Day{time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses an ISO "YYYY-MM-DD" string into a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Day{}, err
	}
	return Day{t.UTC()}, nil
}

// String renders the day as ISO "YYYY-MM-DD".
func (d Day) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON renders the day as a quoted ISO date string.
func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON parses a quoted ISO date string.
func (d *Day) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays returns the day shifted by n calendar days.
func (d Day) AddDays(n int) Day {
	return Day{d.Time.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before other.
func (d Day) Before(other Day) bool { return d.Time.Before(other.Time) }

// After reports whether d is strictly after other.
func (d Day) After(other Day) bool { return d.Time.After(other.Time) }

// Equal reports whether d and other are the same calendar day.
func (d Day) Equal(other Day) bool { return d.Time.Equal(other.Time) }

// Compare returns -1, 0, or 1 as d is before, equal to, or after other.
func (d Day) Compare(other Day) int {
	switch {
	case d.Before(other):
		return -1
	case d.After(other):
		return 1
	default:
		return 0
	}
}

// DaysUntil returns the number of calendar days from d to other (negative if other is before d).
func (d Day) DaysUntil(other Day) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

// Weekday returns the day of week, 0=Sunday..6=Saturday, matching time.Weekday.
func (d Day) Weekday() time.Weekday { return d.Time.Weekday() }

// IsBusinessDay reports whether d falls Mon-Fri (no holiday calendar in v1).
func (d Day) IsBusinessDay() bool {
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// PrevBusinessDay walks backward until a business day is reached.
func (d Day) PrevBusinessDay() Day {
	cur := d
	for !cur.IsBusinessDay() {
		cur = cur.AddDays(-1)
	}
	return cur
}

// NextBusinessDay walks forward until a business day is reached.
func (d Day) NextBusinessDay() Day {
	cur := d
	for !cur.IsBusinessDay() {
		cur = cur.AddDays(1)
	}
	return cur
}
