package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/healthybuddy/internal/auth"
	"github.com/dukerupert/healthybuddy/internal/model"
)

// AccountStore is the SQLite credential directory. It implements
// auth.Verifier, auth.Registrar, auth.MemberLister and auth.FamilyResolver.
type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.User, string, error) {
	var u model.User
	var role, hash string
	err := scanner.Scan(&u.ID, &u.Username, &u.Email, &hash, &role, &u.Nickname, &u.ParentEmail, &u.FamilyID)
	if err != nil {
		return nil, "", err
	}
	u.Role = model.Role(role)
	return &u, hash, nil
}

const accountCols = `id, username, email, password_hash, role, nickname, parent_email, family_id`

func (s *AccountStore) Register(ctx context.Context, user model.User, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, hash, string(user.Role), user.Nickname, user.ParentEmail, user.FamilyID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.ErrUsernameTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *AccountStore) Verify(ctx context.Context, username, password string) (*model.User, error) {
	u, hash, err := s.getByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.CheckPassword(hash, password) {
		return nil, auth.ErrInvalidCredentials
	}
	return u, nil
}

func (s *AccountStore) getByUsername(ctx context.Context, username string) (*model.User, string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE username = ?`, username)
	u, hash, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get account: %w", err)
	}
	return u, hash, nil
}

// FamilyForParentEmail returns the family of the first parent account
// registered with email, or "" when there is none.
func (s *AccountStore) FamilyForParentEmail(ctx context.Context, email string) (string, error) {
	var familyID string
	err := s.db.QueryRowContext(ctx,
		`SELECT family_id FROM accounts WHERE email = ? AND role = 'parent' ORDER BY created_at ASC LIMIT 1`,
		email,
	).Scan(&familyID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("family for parent email: %w", err)
	}
	return familyID, nil
}

func (s *AccountStore) ListByFamily(ctx context.Context, familyID string) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE family_id = ? ORDER BY role DESC, username ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, _, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *AccountStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// SeedDemo installs the demo accounts unless they already exist.
func (s *AccountStore) SeedDemo(ctx context.Context) error {
	for _, u := range auth.DemoUsers() {
		err := s.Register(ctx, u, auth.DemoPassword)
		if err != nil && !errors.Is(err, auth.ErrUsernameTaken) {
			return fmt.Errorf("seed %s: %w", u.Username, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
