package dto

import (
	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

// SimulateSpendRequest is the body of POST /forecast/simulate-spend.
type SimulateSpendRequest struct {
	Date             string   `json:"date" binding:"required"`
	AmountCents      int64    `json:"amountCents" binding:"required"`
	AccountIDs       []string `json:"accountIDs"`
	BufferFloorCents *int64   `json:"bufferFloorCents"`
	HorizonDays      *int     `json:"horizonDays"`
}

// UpsertKeyEventRequest is the body of POST /key-events.
type UpsertKeyEventRequest struct {
	KeyEventID         string `json:"keyEventID"`
	Name               string `json:"name" binding:"required"`
	EventDate          string `json:"eventDate" binding:"required"`
	RepeatRule         string `json:"repeatRule"`
	PlannedAmountCents int64  `json:"plannedAmountCents" binding:"required"`
	CategoryID         string `json:"categoryID"`
	LeadTimeDays       int    `json:"leadTimeDays"`
	ShiftPolicy        string `json:"shiftPolicy"`
	AccountID          string `json:"accountID"`
}

// ToDomain resolves the request into a domain.KeySpendEvent, generating a new
// KeyEventID when req.KeyEventID is blank (a create rather than an update).
func (req UpsertKeyEventRequest) ToDomain(newID func() string) (domain.KeySpendEvent, error) {
	eventDate, err := domain.ParseDay(req.EventDate)
	if err != nil {
		return domain.KeySpendEvent{}, apperrors.Validation("malformed eventDate: " + err.Error())
	}
	if req.RepeatRule != "" {
		if _, err := services.ParseRule(req.RepeatRule); err != nil {
			return domain.KeySpendEvent{}, err
		}
	}
	shift := domain.ShiftPolicy(req.ShiftPolicy)
	if shift == "" {
		shift = domain.AsScheduled
	}
	keyEventID := req.KeyEventID
	if keyEventID == "" {
		keyEventID = newID()
	}
	return domain.KeySpendEvent{
		KeyEventID:         keyEventID,
		Name:               req.Name,
		EventDate:          eventDate,
		RepeatRule:         req.RepeatRule,
		PlannedAmountCents: req.PlannedAmountCents,
		CategoryID:         req.CategoryID,
		LeadTimeDays:       req.LeadTimeDays,
		ShiftPolicy:        shift,
		AccountID:          req.AccountID,
	}, nil
}

// SetAnchorRequest is the body of PUT /accounts/{id}/anchor.
type SetAnchorRequest struct {
	AnchorDate         string `json:"anchorDate" binding:"required"`
	AnchorBalanceCents int64  `json:"anchorBalanceCents"`
	MinFloorCents      *int64 `json:"minFloorCents"`
}

// ToDomain resolves the request into a domain.AccountAnchor for accountID.
func (req SetAnchorRequest) ToDomain(accountID string) (domain.AccountAnchor, error) {
	anchorDate, err := domain.ParseDay(req.AnchorDate)
	if err != nil {
		return domain.AccountAnchor{}, apperrors.Validation("malformed anchorDate: " + err.Error())
	}
	return domain.AccountAnchor{
		AccountID:          accountID,
		AnchorDate:         anchorDate,
		AnchorBalanceCents: req.AnchorBalanceCents,
		MinFloorCents:      req.MinFloorCents,
	}, nil
}

// ExportRequest is the body of POST /q/export.
type ExportRequest struct {
	Pack        string `json:"pack" binding:"required"`
	AsOf        string `json:"asOf"`
	PeriodStart string `json:"periodStart" binding:"required"`
	PeriodEnd   string `json:"periodEnd" binding:"required"`
	Format      string `json:"format"` // csv | pdf | both, default both
	RedactMemos bool   `json:"redactMemos"`
}

// BackfillRequest is the body of POST /ingest/{source}/backfill.
type BackfillRequest struct {
	Months int `json:"months" binding:"required,min=1"`
}

// CSVIngestQuery is the multipart-form field accompanying the uploaded file
// on POST /ingest/{source}/from-csv.
type CSVIngestQuery struct {
	AccountName string `form:"accountName" binding:"required"`
}
