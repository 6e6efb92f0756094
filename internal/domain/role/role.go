package role

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("role not found")

// Role is one entry of the approver role directory. Name is the stable
// identifier referenced by rules, workflows and delegations (e.g. MANAGER).
type Role struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Level             int      `json:"level"`
	MaxApprovalAmount *float64 `json:"maxApprovalAmount,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Membership binds a principal to a role. Membership is supplied by the
// surrounding system; this service does not authenticate principals.
type Membership struct {
	ID        int64     `json:"id"`
	RoleName  string    `json:"roleName"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
