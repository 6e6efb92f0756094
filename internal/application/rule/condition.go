package rule

import (
	"errors"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/approval-hub/approval-hub/internal/domain/invoice"
)

// EvaluateCondition evaluates a rule's condition expression against invoice
// parameters. Empty condition returns true. Supports "true"/"false" literals.
func EvaluateCondition(condition string, params map[string]interface{}) (bool, error) {
	cond := strings.TrimSpace(condition)
	if cond == "" {
		return true, nil
	}
	switch strings.ToLower(cond) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(params)
	if err != nil {
		return false, err
	}
	switch v := result.(type) {
	case bool:
		return v, nil
	default:
		return false, errors.New("condition did not evaluate to boolean")
	}
}

// conditionParams exposes the invoice fields condition expressions may
// reference, e.g. "amount > 100000 && currency == 'INR'".
func conditionParams(inv invoice.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"amount":             inv.RuleAmount(),
		"rawAmount":          inv.Amount,
		"baseCurrencyAmount": inv.BaseCurrencyAmount,
		"currency":           inv.Currency,
		"invoiceType":        string(inv.InvoiceType),
		"ownerId":            inv.OwnerID,
	}
}
