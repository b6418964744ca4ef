package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lexibox/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := domain.NewUser(" Learner@Example.com ", "$2a$10$hash", fixedNow)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "learner@example.com", user.Email)
	assert.Equal(t, domain.DefaultProficiency, user.ProficiencyLevel)

	testCases := []struct {
		name    string
		email   string
		hash    string
		wantErr error
	}{
		{"empty email", "", "hash", domain.ErrInvalidEmail},
		{"no at sign", "learner.example.com", "hash", domain.ErrInvalidEmail},
		{"no domain dot", "learner@example", "hash", domain.ErrInvalidEmail},
		{"empty hash", "learner@example.com", "", domain.ErrEmptyHashedPassword},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := domain.NewUser(tc.email, tc.hash, fixedNow)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestUserSetProficiency(t *testing.T) {
	t.Parallel()

	user, err := domain.NewUser("learner@example.com", "hash", fixedNow)
	require.NoError(t, err)

	assert.ErrorIs(t, user.SetProficiency("D1", fixedNow), domain.ErrInvalidProficiency)
	assert.Equal(t, domain.ProficiencyB1, user.ProficiencyLevel)

	require.NoError(t, user.SetProficiency(domain.ProficiencyC2, fixedNow))
	assert.Equal(t, domain.ProficiencyC2, user.ProficiencyLevel)
}
