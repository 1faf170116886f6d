package dto

import (
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

// FloorResponse is one row of GET /accounts/floors: the overdraft
// reconciliation threshold declared on an account's anchor, if any.
type FloorResponse struct {
	AccountID     string `json:"accountID"`
	MinFloorCents *int64 `json:"minFloorCents,omitempty"`
}

// ToFloors projects the operator-declared floor out of every anchor.
func ToFloors(anchors []domain.AccountAnchor) []FloorResponse {
	out := make([]FloorResponse, len(anchors))
	for i, a := range anchors {
		out[i] = FloorResponse{AccountID: a.AccountID, MinFloorCents: a.MinFloorCents}
	}
	return out
}

// IngestResponse mirrors the outcome of one Ingestor run.
type IngestResponse struct {
	AuditID      string `json:"auditID"`
	RowsUpserted int    `json:"rowsUpserted"`
	Status       string `json:"status"`
	Notes        string `json:"notes,omitempty"`
}

// ToIngestResponse converts a services.IngestResult to its wire shape.
func ToIngestResponse(r *services.IngestResult) IngestResponse {
	return IngestResponse{
		AuditID:      r.AuditID,
		RowsUpserted: r.RowsUpserted,
		Status:       string(r.Status),
		Notes:        r.Notes,
	}
}

// CalendarResponse is the body of GET /forecast/calendar.
type CalendarResponse struct {
	Start             string          `json:"start"`
	End               string          `json:"end"`
	OpeningCents      int64           `json:"openingCents"`
	Entries           []domain.Entry  `json:"entries"`
	Balances          services.Series `json:"balances"`
	MinBalanceCents   int64           `json:"minBalanceCents"`
	MinBalanceDate    string          `json:"minBalanceDate"`
	NextCliffDate     *string         `json:"nextCliffDate,omitempty"`
	SafeToSpendCents  int64           `json:"safeToSpendCents"`
}

// ToCalendarResponse projects a services.Forecast onto the wire shape.
func ToCalendarResponse(fc *services.Forecast) CalendarResponse {
	resp := CalendarResponse{
		Start:            fc.Start.String(),
		End:              fc.End.String(),
		OpeningCents:     fc.OpeningCents,
		Entries:          fc.Entries,
		Balances:         fc.Balances,
		MinBalanceCents:  fc.MinBalanceCents,
		MinBalanceDate:   fc.MinBalanceDate.String(),
		SafeToSpendCents: fc.SafeToSpendCents,
	}
	if fc.NextCliffDate != nil {
		s := fc.NextCliffDate.String()
		resp.NextCliffDate = &s
	}
	return resp
}

// BlendedResponse is the body of GET /forecast/blended.
type BlendedResponse struct {
	Deterministic CalendarResponse `json:"deterministic"`
	Baseline      services.Series  `json:"baseline"`
	Lower         services.Series  `json:"lower"`
	Upper         services.Series  `json:"upper"`
	MeanCents     int64            `json:"meanCents"`
	StdDevCents   int64            `json:"stdDevCents"`
}

// SimulateSpendResponse is the body of POST /forecast/simulate-spend.
type SimulateSpendResponse struct {
	Safe               bool     `json:"safe"`
	NewMinBalanceCents int64    `json:"newMinBalanceCents"`
	NewMinBalanceDate  string   `json:"newMinBalanceDate"`
	TightDays          []string `json:"tightDays"`
	MaxSafeTodayCents  int64    `json:"maxSafeTodayCents"`
}

// ToSimulateSpendResponse converts a services.SimulationResult to its wire shape.
func ToSimulateSpendResponse(r *services.SimulationResult) SimulateSpendResponse {
	tight := make([]string, len(r.TightDays))
	for i, d := range r.TightDays {
		tight[i] = d.String()
	}
	return SimulateSpendResponse{
		Safe:               r.Safe,
		NewMinBalanceCents: r.NewMinBalanceCents,
		NewMinBalanceDate:  r.NewMinBalanceDate.String(),
		TightDays:          tight,
		MaxSafeTodayCents:  r.MaxSafeTodayCents,
	}
}
