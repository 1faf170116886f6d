package domain

// AccountType classifies an account the way the upstream bookkeeping service reports it.
type AccountType string

const (
	AccountChecking AccountType = "CHECKING"
	AccountSavings  AccountType = "SAVINGS"
	AccountCredit   AccountType = "CREDIT"
	AccountCash     AccountType = "CASH"
	AccountOther    AccountType = "OTHER"
)

// Account is created by the Ingestor on first sight of a source/external_id
// pair and is never deleted, only deactivated.
type Account struct {
	AccountID  string      `json:"accountID"`
	Name       string      `json:"name"`
	Type       AccountType `json:"type"`
	Currency   string      `json:"currency"`
	ExternalID string      `json:"externalID"`
	Source     string      `json:"source"`
	IsActive   bool        `json:"isActive"`
	AuditFields
}
