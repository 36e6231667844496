package creds

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/shared"
)

// Roles known to the dashboard.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Credential is one dashboard account. Passwords are kept only as bcrypt
// hashes, never in plaintext.
type Credential struct {
	Username     string
	PasswordHash string
	Brand        string
	Role         string
	Description  string
}

// Store resolves usernames to credentials.
type Store interface {
	Lookup(ctx context.Context, username string) (*Credential, error)
	List(ctx context.Context) []Credential
	SetRole(ctx context.Context, username, role string) (oldRole string, err error)
}

// StaticStore is an in-memory Store seeded at process start. Accounts are
// never deleted; the only mutation is the admin role-change action.
type StaticStore struct {
	mu    sync.RWMutex
	users map[string]*Credential
}

// NewStaticStore builds a store from the given credentials.
func NewStaticStore(credentials ...Credential) *StaticStore {
	users := make(map[string]*Credential, len(credentials))
	for i := range credentials {
		c := credentials[i]
		users[c.Username] = &c
	}
	return &StaticStore{users: users}
}

// SeedUser describes one account to hash into a StaticStore.
type SeedUser struct {
	Username    string
	Password    string
	Brand       string
	Role        string
	Description string
}

// NewSeededStore hashes the given plaintext seeds with bcrypt and returns a
// ready store. Seeding happens once at startup, so default cost is fine.
func NewSeededStore(seeds ...SeedUser) (*StaticStore, error) {
	credentials := make([]Credential, 0, len(seeds))
	for _, seed := range seeds {
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("creds: hash %s: %w", seed.Username, err)
		}
		credentials = append(credentials, Credential{
			Username:     seed.Username,
			PasswordHash: string(hash),
			Brand:        seed.Brand,
			Role:         seed.Role,
			Description:  seed.Description,
		})
	}
	return NewStaticStore(credentials...), nil
}

// Lookup returns a copy of the credential for username, or
// shared.ErrNotFound.
func (s *StaticStore) Lookup(ctx context.Context, username string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.users[username]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := *cred
	return &cp, nil
}

// List returns all accounts sorted by username.
func (s *StaticStore) List(ctx context.Context) []Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Credential, 0, len(s.users))
	for _, cred := range s.users {
		out = append(out, *cred)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// SetRole changes an account's role and returns the previous one.
func (s *StaticStore) SetRole(ctx context.Context, username, role string) (string, error) {
	if role != RoleUser && role != RoleAdmin {
		return "", fmt.Errorf("creds: unknown role %q", role)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.users[username]
	if !ok {
		return "", shared.ErrNotFound
	}
	old := cred.Role
	cred.Role = role
	return old, nil
}

var _ Store = (*StaticStore)(nil)
