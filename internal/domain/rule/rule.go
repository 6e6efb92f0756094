package rule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/approval-hub/approval-hub/internal/domain/invoice"
)

var (
	ErrNotFound   = errors.New("rule not found")
	ErrReferenced = errors.New("rule is referenced by a workflow and cannot be modified")
)

// Rule defines an approval policy. Amount bounds are expressed in the
// normalized base currency.
type Rule struct {
	ID                int64      `json:"id"`
	RuleID            uuid.UUID  `json:"ruleId"`
	Name              string     `json:"name"`
	Description       string     `json:"description,omitempty"`
	MinAmount         float64    `json:"minAmount"`
	MaxAmount         *float64   `json:"maxAmount,omitempty"`
	Currency          *string    `json:"currency,omitempty"`
	InvoiceType       *invoice.Type `json:"invoiceType,omitempty"`
	Condition         *string    `json:"condition,omitempty"`
	RequiredApprovals int        `json:"requiredApprovals"`
	ApproverRoles     []string   `json:"approverRoles"`
	ParallelApproval  bool       `json:"parallelApproval"`
	ApprovalTimeoutHours *int    `json:"approvalTimeoutHours,omitempty"`
	EscalateToRole    *string    `json:"escalateToRole,omitempty"`
	Priority          int        `json:"priority"`
	IsActive          bool       `json:"isActive"`
	CreatedAt         time.Time  `json:"createdAt"`
	CreatedBy         *string    `json:"createdBy,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	UpdatedBy         *string    `json:"updatedBy,omitempty"`
}

// NewRule creates a rule with defaults applied.
func NewRule(name string, minAmount float64, requiredApprovals int, approverRoles []string) *Rule {
	now := time.Now().UTC()
	return &Rule{
		RuleID:            uuid.New(),
		Name:              name,
		MinAmount:         minAmount,
		RequiredApprovals: requiredApprovals,
		ApproverRoles:     approverRoles,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// MatchesAmount reports whether the rule's amount range contains amount.
func (r *Rule) MatchesAmount(amount float64) bool {
	if amount < r.MinAmount {
		return false
	}
	if r.MaxAmount != nil && amount > *r.MaxAmount {
		return false
	}
	return true
}

// MatchesInvoice applies the structural filters (amount range, currency,
// invoice type) to an invoice snapshot. The optional condition expression is
// evaluated separately by the rule service.
func (r *Rule) MatchesInvoice(inv invoice.Snapshot, baseCurrency string) bool {
	if !r.IsActive {
		return false
	}
	if !r.MatchesAmount(inv.RuleAmount()) {
		return false
	}
	if r.Currency != nil && *r.Currency != baseCurrency && *r.Currency != inv.Currency {
		return false
	}
	if r.InvoiceType != nil && *r.InvoiceType != inv.InvoiceType {
		return false
	}
	return true
}

// Select returns the single applicable rule among matches: highest priority
// wins; ties break to the most recently created rule, then the larger
// surrogate id. The input slice is not modified.
func Select(rules []*Rule) *Rule {
	if len(rules) == 0 {
		return nil
	}
	sorted := make([]*Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return sorted[0]
}

// ValidationResult collects authoring-time validation errors.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors,omitempty"`
}

// Validate checks the rule against authoring invariants. roleNames is the set
// of role names known to the role directory.
func (r *Rule) Validate(roleNames map[string]bool) ValidationResult {
	var errs []string
	if r.Name == "" {
		errs = append(errs, "name is required")
	}
	if r.MinAmount < 0 {
		errs = append(errs, "minAmount must not be negative")
	}
	if r.MaxAmount != nil && r.MinAmount > *r.MaxAmount {
		errs = append(errs, "minAmount must not exceed maxAmount")
	}
	if len(r.ApproverRoles) == 0 {
		errs = append(errs, "approverRoles must not be empty")
	}
	if r.RequiredApprovals < 1 {
		errs = append(errs, "requiredApprovals must be >= 1")
	}
	if r.RequiredApprovals > len(r.ApproverRoles) {
		errs = append(errs, "requiredApprovals must not exceed the number of approverRoles")
	}
	if r.ApprovalTimeoutHours != nil && *r.ApprovalTimeoutHours <= 0 {
		errs = append(errs, "approvalTimeoutHours must be positive")
	}
	for _, role := range r.ApproverRoles {
		if !roleNames[role] {
			errs = append(errs, fmt.Sprintf("unknown approver role: %s", role))
		}
	}
	if r.EscalateToRole != nil && !roleNames[*r.EscalateToRole] {
		errs = append(errs, fmt.Sprintf("unknown escalation role: %s", *r.EscalateToRole))
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// Update is the tagged set of fields a rule edit may change. Nil fields are
// left untouched; clearing an optional field uses the dedicated Clear flags.
type Update struct {
	Name                 *string
	Description          *string
	MinAmount            *float64
	MaxAmount            *float64
	ClearMaxAmount       bool
	Currency             *string
	InvoiceType          *invoice.Type
	Condition            *string
	RequiredApprovals    *int
	ApproverRoles        []string
	ParallelApproval     *bool
	ApprovalTimeoutHours *int
	EscalateToRole       *string
	Priority             *int
	IsActive             *bool
	UpdatedBy            *string
}

// Apply folds the update into the rule and bumps UpdatedAt.
func (r *Rule) Apply(u Update) {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.MinAmount != nil {
		r.MinAmount = *u.MinAmount
	}
	if u.ClearMaxAmount {
		r.MaxAmount = nil
	} else if u.MaxAmount != nil {
		r.MaxAmount = u.MaxAmount
	}
	if u.Currency != nil {
		r.Currency = u.Currency
	}
	if u.InvoiceType != nil {
		r.InvoiceType = u.InvoiceType
	}
	if u.Condition != nil {
		r.Condition = u.Condition
	}
	if u.RequiredApprovals != nil {
		r.RequiredApprovals = *u.RequiredApprovals
	}
	if u.ApproverRoles != nil {
		r.ApproverRoles = u.ApproverRoles
	}
	if u.ParallelApproval != nil {
		r.ParallelApproval = *u.ParallelApproval
	}
	if u.ApprovalTimeoutHours != nil {
		r.ApprovalTimeoutHours = u.ApprovalTimeoutHours
	}
	if u.EscalateToRole != nil {
		r.EscalateToRole = u.EscalateToRole
	}
	if u.Priority != nil {
		r.Priority = *u.Priority
	}
	if u.IsActive != nil {
		r.IsActive = *u.IsActive
	}
	r.UpdatedBy = u.UpdatedBy
	r.UpdatedAt = time.Now().UTC()
}

// Filter represents filters for querying rules.
type Filter struct {
	IsActive    *bool
	Currency    *string
	InvoiceType *invoice.Type
}
