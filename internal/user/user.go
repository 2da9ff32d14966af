// Package user holds reviewer identities and their privilege levels, and the
// user directory file that persists them.
package user

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidStatus is returned for a status string outside the known set
var ErrInvalidStatus = errors.New("invalid user status")

// Status is a user's privilege level. Values are ordered by privilege.
type Status int

const (
	// Student can approve or reject an atom map
	Student Status = iota
	// Contributor can also populate the database with new reactions
	Contributor
	// Developer can also modify the structure of the database
	Developer
	// Admin can also approve a rejected reaction
	Admin
)

var statusNames = [...]string{"student", "contributor", "developer", "admin"}

// ParseStatus parses a status case-insensitively
func ParseStatus(s string) (Status, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	for i, name := range statusNames {
		if name == lower {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// String returns the lowercase status name used in users.yml
func (s Status) String() string {
	if s < Student || s > Admin {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// CanOverrideRejection reports whether an approval by this status clears an
// existing rejection.
func (s Status) CanOverrideRejection() bool {
	return s == Admin
}

// MarshalYAML writes the status name
func (s Status) MarshalYAML() (interface{}, error) {
	if s < Student || s > Admin {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return s.String(), nil
}

// UnmarshalYAML parses the status name
func (s *Status) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// User is a reviewer known to the database
type User struct {
	Name   string
	Status Status
}

// New creates a user from a status string.
// An empty status defaults to student; an unknown one fails.
func New(name, status string) (*User, error) {
	if status == "" {
		return &User{Name: name, Status: Student}, nil
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return &User{Name: name, Status: st}, nil
}
