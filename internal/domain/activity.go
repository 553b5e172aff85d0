package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionType labels an audit entry.
type ActionType string

const (
	ActionUserRegistered   ActionType = "Usuario Registrado"
	ActionProfileUpdated   ActionType = "Perfil Actualizado"
	ActionPasswordChanged  ActionType = "Cambio de Contraseña"
	ActionRoleAssigned     ActionType = "Asignación de rol"
	ActionAccountConfirmed ActionType = "Cuenta Confirmada"
	ActionPasswordReset    ActionType = "Restablecimiento de Contraseña"
	ActionRecoveryRequest  ActionType = "Generación de Token de Recuperación"
)

// Activity is an append-only audit entry.
type Activity struct {
	ID         string
	UserID     string
	Action     ActionType
	Detail     string
	OccurredAt time.Time
}

// NewActivity stamps a new audit entry.
func NewActivity(userID string, action ActionType, detail string, now time.Time) Activity {
	return Activity{
		ID:         uuid.NewString(),
		UserID:     userID,
		Action:     action,
		Detail:     detail,
		OccurredAt: now.UTC(),
	}
}

// DefaultDetail returns the standard free-text detail for an action.
func DefaultDetail(action ActionType) string {
	switch action {
	case ActionUserRegistered:
		return "El usuario se registró exitosamente en el sistema."
	case ActionProfileUpdated:
		return "El usuario ha actualizado su perfil."
	case ActionPasswordChanged:
		return "El usuario ha cambiado su contraseña."
	case ActionAccountConfirmed:
		return "El usuario ha confirmado su cuenta exitosamente."
	case ActionPasswordReset:
		return "El usuario ha restablecido su contraseña exitosamente."
	case ActionRecoveryRequest:
		return "El usuario solicitó recuperación de contraseña"
	}
	return string(action)
}

// RoleAssignedDetail describes a role change.
func RoleAssignedDetail(email, role string) string {
	return fmt.Sprintf("Al Usuario %s se asignó el Rol %s", email, role)
}
