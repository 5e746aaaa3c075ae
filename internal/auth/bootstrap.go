package auth

import (
	"context"
	"log/slog"

	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/core"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/model"
	"github.com/nguyenhongdanhg/noitruxinman-sub001/internal/roles"
)

// EnsureAdmin creates an admin account when no user exists yet, so a
// fresh deployment can sign in. It reports whether an account was made.
func EnsureAdmin(ctx context.Context, svc *core.Service, email, password, name string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	users, err := svc.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	if len(users) > 0 {
		return false, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return false, err
	}
	u, err := svc.CreateUser(ctx, model.User{
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
		Roles:        roles.NewSet(roles.Admin),
	})
	if err != nil {
		return false, err
	}
	slog.Info("bootstrap admin created", "user_id", u.ID, "email", u.Email)
	return true, nil
}
