package readmodel

import (
	"errors"
	"time"
)

// ErrDocumentNotFound is returned when a lookup or targeted update matches nothing.
var ErrDocumentNotFound = errors.New("document not found")

// Collection names.
const (
	CollectionUsers       = "usuarios"
	CollectionActivities  = "actividades"
	CollectionRoles       = "roles"
	CollectionPermissions = "permisos"
)

// UserDocument is the denormalized user projection.
type UserDocument struct {
	ID           string `bson:"_id" json:"id"`
	Name         string `bson:"nombre" json:"name"`
	LastName     string `bson:"apellido" json:"lastName"`
	Email        string `bson:"correo" json:"email"`
	Phone        string `bson:"telefono" json:"phone"`
	Address      string `bson:"direccion" json:"address"`
	PasswordHash string `bson:"password" json:"-"`
	RoleID       int    `bson:"rolId" json:"roleId"`
	Verified     bool   `bson:"verificado" json:"verified"`
}

// UserPatch holds the fields a targeted update sets. Nil fields are left alone.
type UserPatch struct {
	Name         *string
	LastName     *string
	Email        *string
	Phone        *string
	Address      *string
	PasswordHash *string
	RoleID       *int
	Verified     *bool
}

// ActivityDocument is the audit projection.
type ActivityDocument struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"usuarioId" json:"userId"`
	Action     string    `bson:"tipoAccion" json:"action"`
	Detail     string    `bson:"detalles" json:"detail"`
	OccurredAt time.Time `bson:"fecha" json:"occurredAt"`
}

// PermissionDocument is a catalog permission.
type PermissionDocument struct {
	ID          int    `bson:"_id" json:"id"`
	Description string `bson:"descripcion" json:"description"`
}

// RoleDocument is a catalog role with its seeded permissions.
type RoleDocument struct {
	ID          int                  `bson:"_id" json:"id"`
	Name        string               `bson:"nombre" json:"name"`
	Permissions []PermissionDocument `bson:"permisos" json:"permissions"`
}

// ActivityFilter narrows an activity listing. Zero values mean no constraint.
type ActivityFilter struct {
	UserID string
	Action string
	From   time.Time
	To     time.Time
}

func (f ActivityFilter) matches(a ActivityDocument) bool {
	if f.UserID != "" && a.UserID != f.UserID {
		return false
	}
	if f.Action != "" && a.Action != f.Action {
		return false
	}
	if !f.From.IsZero() && a.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && a.OccurredAt.After(f.To) {
		return false
	}
	return true
}
