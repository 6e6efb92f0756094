package invoice

import "github.com/google/uuid"

// Type classifies an invoice for rule matching.
type Type string

const (
	TypePurchase  Type = "PURCHASE"
	TypeSales     Type = "SALES"
	TypeExpense   Type = "EXPENSE"
	TypeCreditNote Type = "CREDIT_NOTE"
)

// Snapshot is the read-only invoice view consumed by the engine.
// Invoice persistence lives outside this service; callers pass the snapshot
// with every request that needs one.
type Snapshot struct {
	InvoiceID          uuid.UUID `json:"invoiceId"`
	OwnerID            string    `json:"ownerId"`
	Amount             float64   `json:"amount"`
	Currency           string    `json:"currency"`
	BaseCurrencyAmount float64   `json:"baseCurrencyAmount"`
	InvoiceType        Type      `json:"invoiceType"`
}

// RuleAmount returns the amount used for rule matching: the normalized base
// currency amount when present, the raw amount otherwise.
func (s Snapshot) RuleAmount() float64 {
	if s.BaseCurrencyAmount > 0 {
		return s.BaseCurrencyAmount
	}
	return s.Amount
}
