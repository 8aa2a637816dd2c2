package domain

import (
	"context"
	"errors"
)

// User is the already-authenticated caller of an operation.
type User struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// Role represents a caller's access level
type Role string

const (
	// RoleCustomer owns accounts and cards
	RoleCustomer Role = "customer"

	// RoleAcquirer may authorize card spends
	RoleAcquirer Role = "acquirer"

	// RoleReviewer decides identity verification
	RoleReviewer Role = "reviewer"

	// RoleOperator runs deposits and reconciliation, and may act as any other role
	RoleOperator Role = "operator"
)

var validRoles = map[Role]bool{
	RoleCustomer: true,
	RoleAcquirer: true,
	RoleReviewer: true,
	RoleOperator: true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// Allows reports whether the role satisfies any of the wanted roles.
func (r Role) Allows(wanted ...Role) bool {
	if r == RoleOperator {
		return true
	}
	for _, w := range wanted {
		if r == w {
			return true
		}
	}
	return false
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type userContextKey struct{}

// ContextWithUser attaches the caller to ctx.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the caller from ctx.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*User)
	return user, ok && user != nil
}
