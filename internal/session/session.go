// Package session owns the device's current identity: restoring it at
// startup, logging in, signing up, logging out, and mirroring it to
// durable storage under a single key.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/healthybuddy/internal/auth"
	"github.com/dukerupert/healthybuddy/internal/ids"
	"github.com/dukerupert/healthybuddy/internal/model"
	"github.com/dukerupert/healthybuddy/internal/storage"
	"github.com/dukerupert/healthybuddy/internal/websocket"
)

// StorageKey is the durable storage key holding the serialized identity.
const StorageKey = "user"

const defaultStorageTimeout = 5 * time.Second

type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

// Disconnecter is implemented by hubs that can drop every live connection
// of a family once its session on the device ends.
type Disconnecter interface {
	Evict(familyID string) int
}

type Config struct {
	// StorageTimeout bounds every durable storage call. Zero means 5s.
	StorageTimeout time.Duration
	// UserIDs and FamilyIDs default to UUIDs.
	UserIDs   ids.Generator
	FamilyIDs ids.Generator
}

// SignupRequest is the data a new account is created from.
type SignupRequest struct {
	Username    string     `json:"username" validate:"required,max=64"`
	Email       string     `json:"email" validate:"required,email"`
	Password    string     `json:"password" validate:"required"`
	Role        model.Role `json:"role" validate:"required,oneof=parent child"`
	Nickname    string     `json:"nickname,omitempty" validate:"max=64"`
	ParentEmail string     `json:"parentEmail,omitempty" validate:"omitempty,email"`
}

type Store struct {
	storage   storage.Storage
	verifier  auth.Verifier
	hub       Broadcaster
	logger    *slog.Logger
	timeout   time.Duration
	userIDs   ids.Generator
	familyIDs ids.Generator
	validate  *validator.Validate

	mu       sync.RWMutex
	current  *model.User
	inFlight int
}

// New builds a session store. hub may be nil.
func New(cfg Config, st storage.Storage, verifier auth.Verifier, hub Broadcaster, logger *slog.Logger) *Store {
	s := &Store{
		storage:   st,
		verifier:  verifier,
		hub:       hub,
		logger:    logger,
		timeout:   cfg.StorageTimeout,
		userIDs:   cfg.UserIDs,
		familyIDs: cfg.FamilyIDs,
		validate:  validator.New(),
	}
	if s.timeout <= 0 {
		s.timeout = defaultStorageTimeout
	}
	if s.userIDs == nil {
		s.userIDs = ids.UUID{}
	}
	if s.familyIDs == nil {
		s.familyIDs = ids.UUID{}
	}
	return s
}

// Current returns a copy of the current identity, or nil.
func (s *Store) Current() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// Loading reports whether a session operation is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// Context returns ctx carrying the AuthContext of the current identity.
// ok is false when nobody is signed in.
func (s *Store) Context(ctx context.Context) (context.Context, bool) {
	u := s.Current()
	if u == nil {
		return ctx, false
	}
	return auth.WithAuth(ctx, auth.ForUser(*u)), true
}

// Restore loads a previously persisted identity. Missing or malformed
// data leaves the store signed out.
func (s *Store) Restore(ctx context.Context) {
	defer s.begin()()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, ok, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Error("failed to load user", "error", err)
		return
	}
	if !ok {
		return
	}

	u, err := decodeUser(raw)
	if err != nil {
		s.logger.Warn("ignoring stored user", "error", err)
		return
	}

	s.setCurrent(u)
	s.logger.Info("session restored", "user_id", u.ID, "role", u.Role)
}

// Login verifies the credentials and makes the matching identity current.
// It returns false on any failure and leaves the current identity as it was.
func (s *Store) Login(ctx context.Context, username, password string) bool {
	defer s.begin()()
	prev := s.Current()

	vctx, cancel := context.WithTimeout(ctx, s.timeout)
	u, err := s.verifier.Verify(vctx, username, password)
	cancel()
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Info("login rejected", "username", username)
		} else {
			s.logger.Error("login error", "error", err)
		}
		return false
	}

	if err := s.persist(ctx, u); err != nil {
		s.logger.Error("login error", "error", err)
		return false
	}

	s.setCurrent(u)
	s.leaveFamily(prev, u.FamilyID)
	s.broadcast(u, "login")
	s.logger.Info("logged in", "user_id", u.ID, "role", u.Role)
	return true
}

// Signup creates a new identity and makes it current. The password is
// handed to the verifier when it can register accounts and is never kept
// in the store. If the identity cannot be persisted the registered
// account is removed again, so a failed signup can be retried.
func (s *Store) Signup(ctx context.Context, req SignupRequest) bool {
	defer s.begin()()
	prev := s.Current()

	if err := s.validate.Struct(req); err != nil {
		s.logger.Warn("signup rejected", "error", err)
		return false
	}

	familyID, err := s.resolveFamily(ctx, req)
	if err != nil {
		s.logger.Error("signup error", "error", err)
		return false
	}

	u := &model.User{
		ID:          s.userIDs.NewID(),
		Username:    req.Username,
		Email:       req.Email,
		Role:        req.Role,
		Nickname:    req.Nickname,
		ParentEmail: req.ParentEmail,
		FamilyID:    familyID,
	}

	reg, registers := s.verifier.(auth.Registrar)
	if registers {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		err := reg.Register(rctx, *u, req.Password)
		cancel()
		if err != nil {
			if errors.Is(err, auth.ErrUsernameTaken) {
				s.logger.Info("signup rejected", "username", req.Username, "reason", "username taken")
			} else {
				s.logger.Error("signup error", "error", err)
			}
			return false
		}
	}

	if err := s.persist(ctx, u); err != nil {
		s.logger.Error("signup error", "error", err)
		if registers {
			s.unregister(ctx, reg, u)
		}
		return false
	}

	s.setCurrent(u)
	s.leaveFamily(prev, u.FamilyID)
	s.broadcast(u, "signup")
	s.logger.Info("signed up", "user_id", u.ID, "role", u.Role, "family_id", u.FamilyID)
	return true
}

// Logout removes the persisted identity and clears the current one. A
// storage failure is logged; the in-memory identity is cleared regardless.
func (s *Store) Logout(ctx context.Context) {
	defer s.begin()()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.storage.Remove(ctx, StorageKey); err != nil {
		s.logger.Error("logout error", "error", err)
	}

	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev != nil {
		s.broadcast(prev, "logout")
		s.leaveFamily(prev, "")
		s.logger.Info("logged out", "user_id", prev.ID)
	}
}

// unregister rolls back an account whose identity could not be persisted.
// It runs detached from ctx, which may be the one that just expired.
func (s *Store) unregister(ctx context.Context, reg auth.Registrar, u *model.User) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := reg.Delete(dctx, u.ID); err != nil {
		s.logger.Error("roll back signup", "user_id", u.ID, "error", err)
	}
}

// leaveFamily disconnects the live clients of prev's family when the
// device no longer belongs to it.
func (s *Store) leaveFamily(prev *model.User, nextFamilyID string) {
	if prev == nil || prev.FamilyID == nextFamilyID {
		return
	}
	d, ok := s.hub.(Disconnecter)
	if !ok {
		return
	}
	if n := d.Evict(prev.FamilyID); n > 0 {
		s.logger.Info("disconnected family clients", "family_id", prev.FamilyID, "count", n)
	}
}

func (s *Store) resolveFamily(ctx context.Context, req SignupRequest) (string, error) {
	if req.Role == model.RoleChild && req.ParentEmail != "" {
		if r, ok := s.verifier.(auth.FamilyResolver); ok {
			rctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			familyID, err := r.FamilyForParentEmail(rctx, req.ParentEmail)
			if err != nil {
				return "", fmt.Errorf("resolve family: %w", err)
			}
			if familyID != "" {
				return familyID, nil
			}
		}
	}
	return s.familyIDs.NewID(), nil
}

func (s *Store) persist(ctx context.Context, u *model.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.storage.Set(ctx, StorageKey, string(data)); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	return nil
}

func (s *Store) setCurrent(u *model.User) {
	cp := *u
	s.mu.Lock()
	s.current = &cp
	s.mu.Unlock()
}

// begin marks an operation in flight and returns the func that ends it.
func (s *Store) begin() func() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}
}

func (s *Store) broadcast(u *model.User, action string) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(websocket.NewMessage(u.FamilyID, "session", action, u.ID, nil))
}

func decodeUser(raw string) (*model.User, error) {
	var u model.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return nil, errors.New("decode user: missing id")
	}
	if !u.Role.Valid() {
		return nil, fmt.Errorf("decode user: unknown role %q", u.Role)
	}
	// Identities stored before families existed own a family of their own.
	if u.FamilyID == "" {
		u.FamilyID = u.ID
	}
	return &u, nil
}
