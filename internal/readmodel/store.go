package readmodel

import "context"

// Store is the document read store.
type Store interface {
	// InsertUser creates the document if absent; an existing one is untouched.
	InsertUser(ctx context.Context, doc UserDocument) error
	// UpdateUser sets the patched fields of an existing document.
	UpdateUser(ctx context.Context, id string, patch UserPatch) error
	// InsertActivity creates the activity if absent.
	InsertActivity(ctx context.Context, doc ActivityDocument) error

	FindUserByID(ctx context.Context, id string) (*UserDocument, error)
	FindUserByEmail(ctx context.Context, email string) (*UserDocument, error)
	ListUsers(ctx context.Context) ([]UserDocument, error)
	ListActivities(ctx context.Context, filter ActivityFilter) ([]ActivityDocument, error)
	FindRoleByID(ctx context.Context, id int) (*RoleDocument, error)
	ListRoles(ctx context.Context) ([]RoleDocument, error)
}
