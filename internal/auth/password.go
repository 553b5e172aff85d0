package auth

import "golang.org/x/crypto/bcrypt"

// Hasher hashes and checks credentials.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hashed, plain string) bool
}

// BcryptHasher is the bcrypt Hasher.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher builds a hasher; a cost outside bcrypt's range uses the default.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash hashes a plaintext password with configured cost.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Compare verifies a password against its hashed value.
func (h *BcryptHasher) Compare(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
