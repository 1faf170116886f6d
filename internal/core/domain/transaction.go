package domain

import "crypto/sha256"
import "encoding/hex"
import "fmt"

// Transaction is upsert-only: re-ingesting the same idempotency key may only
// update category_id, is_cleared, and import_meta. Every other field is
// fixed at first insert.
type Transaction struct {
	TransactionID  string `json:"transactionID"`
	IdempotencyKey string `json:"idempotencyKey"`
	AccountID      string `json:"accountID"`
	PostedAt       Day    `json:"postedAt"`
	AmountCents    int64  `json:"amountCents"` // signed: debit negative, credit positive
	Payee          string `json:"payee"`
	Memo           string `json:"memo"`
	ExternalID     string `json:"externalID"`
	Source         string `json:"source"`
	CategoryID     string `json:"categoryID,omitempty"`
	IsCleared      bool   `json:"isCleared"`
	ImportMeta     string `json:"importMeta,omitempty"` // opaque JSON blob from the source record
	AuditFields
}

// IdempotencyKey computes the stable dedup key for a raw upstream record:
// sha256(source|external_id|posted_at|amount_cents), hex encoded. The export
// integrity hash (services.Hash) is sha256 as well.
func IdempotencyKey(source, externalID string, postedAt Day, amountCents int64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d", source, externalID, postedAt.String(), amountCents)
	return hex.EncodeToString(h.Sum(nil))
}
