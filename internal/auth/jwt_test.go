package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luca-ama/ama/internal/models"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	u := &models.User{ID: uuid.New(), Email: "mod@example.com", Role: models.RoleModerator}

	token, err := svc.Generate(u)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "mod@example.com", claims.Email)
	assert.Equal(t, models.RoleModerator, claims.Role)
	assert.True(t, claims.Role.CanModerate())
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	u := &models.User{ID: uuid.New(), Email: "a@example.com", Role: models.RoleUser}
	token, err := NewJWTService("secret-a", 1).Generate(u)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWTService("secret", 1).Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
