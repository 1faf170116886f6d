package domain

// ShiftPolicy moves a nominal due date off a weekend (no holiday calendar in v1).
type ShiftPolicy string

const (
	AsScheduled     ShiftPolicy = "AS_SCHEDULED"
	PrevBusinessDay ShiftPolicy = "PREV_BUSINESS_DAY"
	NextBusinessDay ShiftPolicy = "NEXT_BUSINESS_DAY"
)

// EntryType tags the source of a dated calendar entry. Inflow / commitment /
// key event is modeled as this tagged variant rather than an interface
// hierarchy, per the spec's polymorphism note: no inheritance is required.
type EntryType string

const (
	EntryInflow     EntryType = "inflow"
	EntryCommitment EntryType = "commitment"
	EntryKeyEvent   EntryType = "key_event"
)

// entryTypeOrder fixes the tie-break order spec.md §4.4 requires:
// (date, type ∈ {inflow, commitment, key_event}, source_id).
var entryTypeOrder = map[EntryType]int{
	EntryInflow:     0,
	EntryCommitment: 1,
	EntryKeyEvent:   2,
}

// EntryTypeOrder returns the ordinal used to break ties between entries on
// the same date.
func EntryTypeOrder(t EntryType) int { return entryTypeOrder[t] }

// Commitment is a recurring obligation; amount_cents is a positive
// magnitude and always contributes as an outflow.
type Commitment struct {
	CommitmentID       string      `json:"commitmentID"`
	Name               string      `json:"name"`
	AmountCents        int64       `json:"amountCents"`
	DueRule            string      `json:"dueRule"`
	NextDueDate        Day         `json:"nextDueDate"`
	Priority           int         `json:"priority"`
	AccountID          string      `json:"accountID"`
	FlexibleWindowDays int         `json:"flexibleWindowDays"`
	CategoryID         string      `json:"categoryID,omitempty"`
	Type               string      `json:"type"` // e.g. "loan", "rent", "utility", "subscription"
	ShiftPolicy        ShiftPolicy `json:"shiftPolicy"`
	IsActive           bool        `json:"isActive"`
	AuditFields
}

// ScheduledInflow has the same shape as Commitment but contributes with the
// opposite sign (an inflow).
type ScheduledInflow struct {
	InflowID    string `json:"inflowID"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amountCents"`
	DueRule     string `json:"dueRule"`
	NextDueDate Day    `json:"nextDueDate"`
	AccountID   string `json:"accountID"`
	Type        string `json:"type"` // e.g. "salary", "benefit", "transfer_in"
	IsActive    bool   `json:"isActive"`
	AuditFields
}

// KeySpendEvent is a discrete dated event. PlannedAmountCents > 0 is an
// expense, < 0 is an income (spec.md §9 fixes this sign convention).
type KeySpendEvent struct {
	KeyEventID          string      `json:"keyEventID"`
	Name                string      `json:"name"`
	EventDate           Day         `json:"eventDate"`
	RepeatRule          string      `json:"repeatRule,omitempty"`
	PlannedAmountCents  int64       `json:"plannedAmountCents"`
	CategoryID          string      `json:"categoryID,omitempty"`
	LeadTimeDays        int         `json:"leadTimeDays"`
	ShiftPolicy         ShiftPolicy `json:"shiftPolicy"`
	AccountID           string      `json:"accountID,omitempty"`
	AuditFields
}

// Entry is the common projection every scheduled source (inflow,
// commitment, key event) expands into.
type Entry struct {
	Date               Day       `json:"date"`
	Type               EntryType `json:"type"`
	Name               string    `json:"name"`
	SignedAmountCents  int64     `json:"signedAmountCents"`
	SourceID           string    `json:"sourceID"`
	ShiftApplied       bool      `json:"shiftApplied"`
	Policy             ShiftPolicy `json:"policy,omitempty"`
	UIMarker           string    `json:"uiMarker,omitempty"`
	IsWithinLeadWindow bool      `json:"isWithinLeadWindow,omitempty"`
}
