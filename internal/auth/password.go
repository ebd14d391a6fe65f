package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinBcryptCost is the floor for the adaptive hash cost factor.
const MinBcryptCost = 10

var ErrInvalidPassword = errors.New("invalid password")

// PasswordService hashes and verifies link passwords with bcrypt.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a password service with the minimum cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{
		cost: MinBcryptCost,
	}
}

// NewPasswordServiceWithCost creates a password service with a custom cost.
// Costs below the floor are raised to it.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
	}
	return &PasswordService{
		cost: cost,
	}
}

// HashPassword hashes a plaintext password with bcrypt.
func (s *PasswordService) HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", ErrInvalidPassword
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// VerifyPassword checks a plaintext password against a stored hash.
// bcrypt's comparison is constant time.
func (s *PasswordService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
