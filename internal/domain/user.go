package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrEmptyUserID         = fmt.Errorf("%w: user ID cannot be empty", ErrInvalidInput)
	ErrInvalidEmail        = fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrInvalidProficiency  = fmt.Errorf("%w: invalid proficiency level", ErrInvalidInput)
	ErrUserNotFound        = fmt.Errorf("%w: user", ErrNotFound)
)

// ProficiencyLevel is a CEFR language level used to tune card generation.
type ProficiencyLevel string

const (
	ProficiencyA1 ProficiencyLevel = "A1"
	ProficiencyA2 ProficiencyLevel = "A2"
	ProficiencyB1 ProficiencyLevel = "B1"
	ProficiencyB2 ProficiencyLevel = "B2"
	ProficiencyC1 ProficiencyLevel = "C1"
	ProficiencyC2 ProficiencyLevel = "C2"
)

// DefaultProficiency is assigned to users that have not chosen a level.
const DefaultProficiency = ProficiencyB1

// Valid reports whether the level is a known CEFR level.
func (p ProficiencyLevel) Valid() bool {
	switch p {
	case ProficiencyA1, ProficiencyA2, ProficiencyB1, ProficiencyB2, ProficiencyC1, ProficiencyC2:
		return true
	default:
		return false
	}
}

// User is a learner. Every other entity is scoped to one user.
type User struct {
	ID               uuid.UUID        `json:"id"`
	Email            string           `json:"email"`
	HashedPassword   string           `json:"-"`
	ProficiencyLevel ProficiencyLevel `json:"proficiency_level"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewUser creates a user with an already hashed password.
func NewUser(email, hashedPassword string, now time.Time) (*User, error) {
	now = now.UTC()
	user := &User{
		ID:               uuid.New(),
		Email:            strings.ToLower(strings.TrimSpace(email)),
		HashedPassword:   hashedPassword,
		ProficiencyLevel: DefaultProficiency,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}
	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}
	if u.HashedPassword == "" {
		return ErrEmptyHashedPassword
	}
	if !u.ProficiencyLevel.Valid() {
		return ErrInvalidProficiency
	}
	return nil
}

// SetProficiency changes the user's level.
func (u *User) SetProficiency(level ProficiencyLevel, now time.Time) error {
	if !level.Valid() {
		return ErrInvalidProficiency
	}
	u.ProficiencyLevel = level
	u.UpdatedAt = now.UTC()
	return nil
}

// validateEmailFormat requires a non-empty local part and a dotted domain.
func validateEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domainPart := email[at+1:]
	dot := strings.IndexByte(domainPart, '.')
	return dot > 0 && dot < len(domainPart)-1
}
