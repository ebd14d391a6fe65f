package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordService_HashAndVerify(t *testing.T) {
	s := NewPasswordService()

	hash, err := s.HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$2a$"), "expected a bcrypt hash, got %q", hash)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, s.VerifyPassword(hash, "s3cret"))
	assert.Error(t, s.VerifyPassword(hash, "wrong"))
	assert.Error(t, s.VerifyPassword("not-a-hash", "s3cret"))
}

func TestPasswordService_EmptyPassword(t *testing.T) {
	s := NewPasswordService()
	_, err := s.HashPassword("")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestPasswordService_CostFloor(t *testing.T) {
	s := NewPasswordServiceWithCost(4)
	assert.Equal(t, MinBcryptCost, s.cost, "costs below the floor must be raised")

	s = NewPasswordServiceWithCost(12)
	assert.Equal(t, 12, s.cost)
}

func TestPasswordService_HashesAreSalted(t *testing.T) {
	s := NewPasswordService()

	first, err := s.HashPassword("s3cret")
	require.NoError(t, err)
	second, err := s.HashPassword("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, s.VerifyPassword(first, "s3cret"))
	assert.NoError(t, s.VerifyPassword(second, "s3cret"))
}
