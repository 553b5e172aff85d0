package dto

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/spec-kit/user-service/internal/readmodel"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// CreateUserRequest payload for new users.
type CreateUserRequest struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
	RoleID   int    `json:"roleId"`
}

// Validate will run validation rules
func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Length(0, 20)),
		validation.Field(&r.Address, validation.Length(0, 200)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.RoleID, validation.Required, validation.Min(1)),
	)
}

// UpdateProfileRequest payload for profile edits.
type UpdateProfileRequest struct {
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Length(0, 20)),
		validation.Field(&r.Address, validation.Length(0, 200)),
	)
}

// ChangePasswordRequest payload for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

// AssignRoleRequest payload for role changes.
type AssignRoleRequest struct {
	RoleID int `json:"roleId"`
}

func (r AssignRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RoleID, validation.Required, validation.Min(1)),
	)
}

// ConfirmAccountRequest payload for account confirmation.
type ConfirmAccountRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r ConfirmAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6)),
	)
}

// RecoveryRequest asks for a recovery token.
type RecoveryRequest struct {
	Email string `json:"email"`
}

func (r RecoveryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ResetPasswordRequest sets a password with a recovery token.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

// UserResponse is the public view of a user document.
type UserResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	RoleID   int    `json:"roleId"`
	Verified bool   `json:"verified"`
}

// NewUserResponse maps a read-store document.
func NewUserResponse(doc readmodel.UserDocument) UserResponse {
	return UserResponse{
		ID:       doc.ID,
		Name:     doc.Name,
		LastName: doc.LastName,
		Email:    doc.Email,
		Phone:    doc.Phone,
		Address:  doc.Address,
		RoleID:   doc.RoleID,
		Verified: doc.Verified,
	}
}

// ActivityResponse is one audit entry.
type ActivityResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewActivityResponses(docs []readmodel.ActivityDocument) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, ActivityResponse(d))
	}
	return out
}

// AsValidationError converts ozzo field errors into a VALIDATION_FAILED error.
func AsValidationError(err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		details := make(map[string]any, len(fields))
		for name, fieldErr := range fields {
			details[name] = fieldErr.Error()
		}
		return apperrors.NewValidationError("invalid request", details)
	}
	return apperrors.NewValidationError(err.Error(), nil)
}
