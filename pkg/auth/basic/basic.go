// Package basic authenticates operators with HTTP Basic credentials
// checked against bcrypt hashes. The same user table backs POST /login.
package basic

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/askgate/pkg/auth"
)

// User is one operator account.
type User struct {
	Username     string
	PasswordHash string // bcrypt
}

// dummyHash is compared against when the user is unknown so lookups of
// missing and existing users cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("askgate-dummy-password"), bcrypt.DefaultCost)

// Users checks credentials against a fixed table.
type Users struct {
	hashes map[string][]byte
}

// NewUsers builds the table. Later entries replace earlier ones with the
// same username.
func NewUsers(users []User) *Users {
	u := &Users{hashes: make(map[string][]byte, len(users))}
	for _, user := range users {
		u.hashes[user.Username] = []byte(user.PasswordHash)
	}
	return u
}

// Len returns the number of users.
func (u *Users) Len() int { return len(u.hashes) }

// Verify reports whether password matches the user's hash.
func (u *Users) Verify(username, password string) bool {
	hash, ok := u.hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Identity is the admin identity granted to a verified user.
func Identity(username, method string) *auth.Identity {
	return &auth.Identity{
		Subject:     username,
		ServiceTier: "admin",
		Scopes:      []string{auth.ScopeAdmin},
		Method:      method,
	}
}

// HashPassword returns a bcrypt hash suitable for the user table.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Authenticator handles the Basic scheme.
type Authenticator struct {
	users *Users
}

// New creates a Basic authenticator.
func New(users *Users) *Authenticator {
	return &Authenticator{users: users}
}

// Authenticate abstains unless the Basic scheme is used.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Basic ") {
		return auth.Result{Decision: auth.Abstain}
	}
	username, password, ok := r.BasicAuth()
	if !ok || !a.users.Verify(username, password) {
		return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}
	return auth.Result{Decision: auth.Yes, Identity: Identity(username, "basic")}
}
