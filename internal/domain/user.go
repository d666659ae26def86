package domain

import (
	"context"
	"errors"
)

// User is the authenticated caller taken from a bearer token.
type User struct {
	ID   string
	Role Role
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access, including company settings
	RoleAdmin Role = "admin"

	// RoleAccountant can run and reverse revaluations and maintain rates
	RoleAccountant Role = "accountant"

	// RoleViewer can only read reports and rates
	RoleViewer Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleAdmin:      true,
	RoleAccountant: true,
	RoleViewer:     true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanPost checks if the role can post revaluation entries and rates
func (r Role) CanPost() bool {
	return r == RoleAdmin || r == RoleAccountant
}

// CanManageSettings checks if the role can change company settings and account flags
func (r Role) CanManageSettings() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type userContextKey struct{}

// ContextWithUser stores the caller in ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext returns the caller stored by ContextWithUser.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}

// ActorID returns the caller id, or fallback when the request is anonymous.
func ActorID(ctx context.Context, fallback string) string {
	if user, ok := UserFromContext(ctx); ok && user.ID != "" {
		return user.ID
	}
	return fallback
}
