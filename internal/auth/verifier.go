package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/healthybuddy/internal/model"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
)

// Verifier checks a username/password pair and returns the matching identity.
type Verifier interface {
	Verify(ctx context.Context, username, password string) (*model.User, error)
}

// Registrar is implemented by verifiers that can store new accounts.
// Delete removes an account again and is a no-op for unknown ids.
type Registrar interface {
	Register(ctx context.Context, user model.User, password string) error
	Delete(ctx context.Context, id string) error
}

// MemberLister lists the accounts that share a family.
type MemberLister interface {
	ListByFamily(ctx context.Context, familyID string) ([]model.User, error)
}

// FamilyResolver finds the family of a parent account by email.
type FamilyResolver interface {
	FamilyForParentEmail(ctx context.Context, email string) (string, error)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// DemoPassword is shared by every account in the demo directory.
const DemoPassword = "password123"

// DemoFamilyID is the family shared by the demo accounts.
const DemoFamilyID = "family-1"

// DemoUsers returns the two compiled-in demo identities.
func DemoUsers() []model.User {
	return []model.User{
		{
			ID:       "1",
			Username: "parent1",
			Email:    "parent1@example.com",
			Role:     model.RoleParent,
			Nickname: "Super Mom",
			FamilyID: DemoFamilyID,
		},
		{
			ID:          "2",
			Username:    "child1",
			Email:       "child1@example.com",
			Role:        model.RoleChild,
			Nickname:    "Alex",
			ParentEmail: "parent1@example.com",
			FamilyID:    DemoFamilyID,
		},
	}
}

type staticEntry struct {
	user model.User
	hash string
}

// StaticDirectory is a fixed in-memory credential directory.
type StaticDirectory struct {
	entries []staticEntry
}

// NewStaticDirectory hashes password once and uses it for every user.
func NewStaticDirectory(users []model.User, password string) (*StaticDirectory, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	d := &StaticDirectory{}
	for _, u := range users {
		d.entries = append(d.entries, staticEntry{user: u, hash: hash})
	}
	return d, nil
}

// NewDemoDirectory returns the demo directory.
func NewDemoDirectory() (*StaticDirectory, error) {
	return NewStaticDirectory(DemoUsers(), DemoPassword)
}

func (d *StaticDirectory) Verify(ctx context.Context, username, password string) (*model.User, error) {
	for _, e := range d.entries {
		if e.user.Username != username {
			continue
		}
		if !CheckPassword(e.hash, password) {
			return nil, ErrInvalidCredentials
		}
		u := e.user
		return &u, nil
	}
	return nil, ErrInvalidCredentials
}

func (d *StaticDirectory) FamilyForParentEmail(ctx context.Context, email string) (string, error) {
	for _, e := range d.entries {
		if e.user.Role == model.RoleParent && e.user.Email == email {
			return e.user.FamilyID, nil
		}
	}
	return "", nil
}

func (d *StaticDirectory) ListByFamily(ctx context.Context, familyID string) ([]model.User, error) {
	var users []model.User
	for _, e := range d.entries {
		if e.user.FamilyID == familyID {
			users = append(users, e.user)
		}
	}
	return users, nil
}
