package upstream

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVSource reads RawTransaction records from a flat CSV export for `ctl
// ingest <source> --from-csv PATH`. Column layout mirrors the upstream
// wire shape (date, payee, memo, amount_cents, category, cleared,
// external_id) rather than a bank-statement format, since it stands in for
// the same upstream contract the HTTP Client implements. An account column,
// if present, is not read: every row is attached to AccountName.
type CSVSource struct {
	AccountName string
	records     []RawTransaction
}

// NewCSVSource parses r fully into memory; import files are operator-sized,
// not unbounded streams.
func NewCSVSource(r io.Reader, accountName string) (*CSVSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return &CSVSource{AccountName: accountName}, nil
	}

	header := indexHeader(rows[0])
	var out []RawTransaction
	for _, row := range rows[1:] {
		t, err := parseCSVRow(header, row, accountName)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return &CSVSource{AccountName: accountName, records: out}, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return idx
}

func parseCSVRow(header map[string]int, row []string, accountName string) (RawTransaction, error) {
	get := func(col string) string {
		i, ok := header[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	amountCents, err := strconv.ParseInt(get("amount_cents"), 10, 64)
	if err != nil {
		return RawTransaction{}, fmt.Errorf("malformed amount_cents %q: %w", get("amount_cents"), err)
	}

	externalID := get("external_id")
	if externalID == "" {
		externalID = fmt.Sprintf("%s|%s|%s|%d", accountName, get("date"), get("payee"), amountCents)
	}

	cleared := get("cleared")
	return RawTransaction{
		ExternalID:         externalID,
		AccountExternalID:  accountName,
		AccountName:        accountName,
		AccountType:        "OTHER",
		Currency:           "USD",
		PostedAt:           get("date"),
		AmountCents:        amountCents,
		Payee:              get("payee"),
		Memo:               get("memo"),
		CategoryExternalID: get("category"),
		Cleared:            cleared == "" || cleared == "1" || strings.EqualFold(cleared, "true") || strings.EqualFold(cleared, "cleared"),
	}, nil
}

// Delta returns every parsed record on or after since; CSV imports have no
// server-side filtering, so filtering happens client-side.
func (s *CSVSource) Delta(_ context.Context, since string) ([]RawTransaction, error) {
	var out []RawTransaction
	for _, r := range s.records {
		if r.PostedAt >= since {
			out = append(out, r)
		}
	}
	return out, nil
}

// Backfill returns every parsed record; months is ignored since a CSV import
// has no upstream window to widen.
func (s *CSVSource) Backfill(_ context.Context, _ int) ([]RawTransaction, error) {
	return s.records, nil
}
