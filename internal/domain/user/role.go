package user

import (
	"errors"
	"strings"
)

// Role is the side of the marketplace the client runs as.
type Role string

const (
	RoleRider  Role = "rider"
	RoleDriver Role = "driver"
)

var ErrInvalidRole = errors.New("invalid role")

// ParseRole normalizes (lowercases+trims) and validates a role string.
// "passenger" is accepted as an alias for rider.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if role == "passenger" {
		role = RoleRider
	}
	if role.Valid() {
		return role, nil
	}
	return "", ErrInvalidRole
}

// Valid reports whether role is one of the allowed role constants.
func (role Role) Valid() bool {
	switch role {
	case RoleRider, RoleDriver:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Role.
func (role Role) String() string {
	return string(role)
}

// IsCounterparty reports whether a chat line written by sender came from
// the other side of the ride.
func (role Role) IsCounterparty(sender string) bool {
	return strings.TrimSpace(sender) != "" && Role(sender) != role
}
