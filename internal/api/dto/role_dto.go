package dto

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ReplacePermissionsRequest sets the full permission set of a role.
type ReplacePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

func (r ReplacePermissionsRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Permissions, validation.NotNil),
	); err != nil {
		return err
	}
	for _, p := range r.Permissions {
		if strings.TrimSpace(p) == "" {
			return validation.Errors{"permissions": errors.New("must not contain blank names")}
		}
	}
	return nil
}

// PermissionRequest names one permission.
type PermissionRequest struct {
	Permission string `json:"permission"`
}

func (r PermissionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Permission, validation.Required),
	)
}
