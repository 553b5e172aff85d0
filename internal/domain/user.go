package domain

import (
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
)

// User is the authoritative account record.
type User struct {
	ID                   string
	Name                 string
	LastName             string
	Email                string
	Phone                string
	Address              string
	PasswordHash         string
	ExternalID           string
	RoleID               int
	Verified             bool
	ConfirmationCode     string
	ConfirmationExpires  time.Time
	RecoveryToken        *string
	RecoveryTokenExpires *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewUserInput carries the fields a new account is built from.
type NewUserInput struct {
	Name         string
	LastName     string
	Email        string
	Phone        string
	Address      string
	PasswordHash string
	RoleID       int
}

// NewUser builds an unverified account with a fresh id and confirmation code.
func NewUser(in NewUserInput, now time.Time, confirmationTTL time.Duration) *User {
	return &User{
		ID:                  uuid.NewString(),
		Name:                in.Name,
		LastName:            in.LastName,
		Email:               in.Email,
		Phone:               in.Phone,
		Address:             in.Address,
		PasswordHash:        in.PasswordHash,
		RoleID:              in.RoleID,
		Verified:            false,
		ConfirmationCode:    newCode(),
		ConfirmationExpires: now.Add(confirmationTTL),
	}
}

// UpdateProfile replaces the contact fields.
func (u *User) UpdateProfile(name, lastName, email, phone, address string) {
	u.Name = name
	u.LastName = lastName
	u.Email = email
	u.Phone = phone
	u.Address = address
}

// SetPasswordHash stores a new credential and invalidates any recovery token.
func (u *User) SetPasswordHash(hash string) {
	u.PasswordHash = hash
	u.RecoveryToken = nil
	u.RecoveryTokenExpires = nil
}

// AssignRole points the user at another role.
func (u *User) AssignRole(roleID int) {
	u.RoleID = roleID
}

// CanConfirm reports whether code matches the stored, unexpired confirmation code.
func (u *User) CanConfirm(code string, now time.Time) bool {
	if u.ConfirmationCode == "" || code == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(u.ConfirmationCode), []byte(code)) != 1 {
		return false
	}
	return !now.After(u.ConfirmationExpires)
}

// Verify marks the account as confirmed.
func (u *User) Verify() {
	u.Verified = true
}

// IssueRecoveryToken sets a fresh recovery token valid for ttl.
func (u *User) IssueRecoveryToken(now time.Time, ttl time.Duration) string {
	token := uuid.NewString()
	expires := now.Add(ttl)
	u.RecoveryToken = &token
	u.RecoveryTokenExpires = &expires
	return token
}

// RecoveryTokenValid reports whether the stored recovery token is still usable.
func (u *User) RecoveryTokenValid(now time.Time) bool {
	return u.RecoveryToken != nil && u.RecoveryTokenExpires != nil && !now.After(*u.RecoveryTokenExpires)
}

// ExternallyAuthenticable is true once the identity provider holds the account.
func (u *User) ExternallyAuthenticable() bool {
	return u.ExternalID != ""
}

// newCode returns a six character confirmation code.
func newCode() string {
	id := uuid.New()
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	out := make([]byte, 6)
	for i := range out {
		out[i] = alphabet[int(id[i])%len(alphabet)]
	}
	return string(out)
}
