// Package auth signs users in and issues the session tokens the web layer
// checks on every request.
//
// A login identifier containing "@" is treated as an email. Anything else
// is resolved to an email through the store's get_email_by_login lookup
// (username or phone number). Every failure along the way, including a
// wrong password, surfaces as ErrUserNotFound so callers cannot tell which
// step failed.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidToken = errors.New("unauthorized: invalid or expired token")
)

// UserLookup is the part of core.UserStore that login needs.
type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	EmailByLogin(ctx context.Context, login string) (string, error)
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Claims are carried in every session token.
type Claims struct {
	Name    string   `json:"name"`
	Roles   []string `json:"roles"`
	ClassID string   `json:"class_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor converts verified claims to the request actor.
func (c *Claims) Actor() (core.Actor, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return core.Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return core.Actor{
		UserID:  id,
		Name:    c.Name,
		Roles:   roles.ParseSet(c.Roles),
		ClassID: c.ClassID,
	}, nil
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A ttl <= 0 falls back to 12 hours.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for u and returns it with its expiry.
func (i *Issuer) Issue(u model.User) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Name:    u.FullName,
		Roles:   u.Roles.Strings(),
		ClassID: u.ClassID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses token and checks its signature and expiry.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Session is the result of a successful login.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

// Authenticator checks credentials against the user store.
type Authenticator struct {
	users  UserLookup
	issuer *Issuer
}

func NewAuthenticator(users UserLookup, issuer *Issuer) *Authenticator {
	return &Authenticator{users: users, issuer: issuer}
}

// Issuer returns the token issuer used for verification.
func (a *Authenticator) Issuer() *Issuer {
	return a.issuer
}

// Login resolves identifier to an account, checks password and issues a
// session token.
func (a *Authenticator) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return Session{}, ErrUserNotFound
	}

	email := identifier
	if !strings.Contains(identifier, "@") {
		resolved, err := a.users.EmailByLogin(ctx, identifier)
		if err != nil || resolved == "" {
			return Session{}, ErrUserNotFound
		}
		email = resolved
	}

	u, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return Session{}, ErrUserNotFound
	}
	if !CheckPassword(password, u.PasswordHash) {
		return Session{}, ErrUserNotFound
	}

	token, exp, err := a.issuer.Issue(u)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp, User: u}, nil
}
