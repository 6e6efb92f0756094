package role

import "context"

// Repository defines the interface for the role directory.
type Repository interface {
	Create(ctx context.Context, r *Role) error
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	// Names returns the set of known role names, for rule validation.
	Names(ctx context.Context) (map[string]bool, error)

	AddMember(ctx context.Context, roleName, userID string) error
	RemoveMember(ctx context.Context, roleName, userID string) error
	IsMember(ctx context.Context, userID, roleName string) (bool, error)
	ListMemberIDs(ctx context.Context, roleName string) ([]string, error)
}
