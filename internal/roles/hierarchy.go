// Package roles implements the promotion ladder and the upgrade-request
// processor that moves users up it.
package roles

import "errors"

// Role is a rung on the promotion ladder. The numeric order is the
// promotion order: Banned < User < Admin < Manager.
type Role int

const (
	Banned Role = iota
	User
	Admin
	Manager
)

var roleNames = map[Role]string{
	Banned:  "banned",
	User:    "user",
	Admin:   "admin",
	Manager: "manager",
}

var rolesByName = map[string]Role{
	"banned":  Banned,
	"user":    User,
	"admin":   Admin,
	"manager": Manager,
}

// ErrNoHigherRole is returned when promoting a Manager; the ladder tops out
// there.
var ErrNoHigherRole = errors.New("no higher role")

// ErrInvalidRole is returned for role values outside the defined ladder.
var ErrInvalidRole = errors.New("invalid role")

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether r is a defined rung.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// Parse maps a stored role name back to its rung. Unknown names return
// ErrInvalidRole.
func Parse(name string) (Role, error) {
	if r, ok := rolesByName[name]; ok {
		return r, nil
	}
	return Banned, ErrInvalidRole
}

// NextRole returns the rung directly above current. Manager is terminal and
// fails with ErrNoHigherRole; values off the ladder fail with ErrInvalidRole.
func NextRole(current Role) (Role, error) {
	if !current.Valid() {
		return Banned, ErrInvalidRole
	}
	if current == Manager {
		return Manager, ErrNoHigherRole
	}
	return current + 1, nil
}

// HighestOf resolves a user's stored role-name set to its highest rung.
// Unknown names are skipped; an empty or fully-unknown set resolves to
// Banned so malformed rows never gain access.
func HighestOf(names []string) Role {
	highest := Banned
	for _, name := range names {
		r, err := Parse(name)
		if err != nil {
			continue
		}
		if r > highest {
			highest = r
		}
	}
	return highest
}
