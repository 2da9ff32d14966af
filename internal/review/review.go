// Package review tracks approval and rejection of a reaction's atom map.
//
// A record is unreviewed while both reviewer lists are nil, approved when
// only ApprovedBy is set, and rejected whenever RejectedBy is set, whatever
// its approval history. ApprovedBy and RejectedReasons are append-only audit
// logs. The only removal is an admin approval, which sets RejectedBy back to
// nil and keeps RejectedReasons as they were.
package review

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dreamware/am3db/internal/record"
	"github.com/dreamware/am3db/internal/user"
)

// State is the review state of a record
type State int

const (
	Unreviewed State = iota
	Approved
	Rejected
)

// String returns the state name
func (s State) String() string {
	switch s {
	case Unreviewed:
		return "unreviewed"
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Log holds the reviewer fields of a record
type Log struct {
	ApprovedBy      record.NameList
	RejectedBy      record.NameList
	RejectedReasons []string
}

// NewLog returns the log of a never reviewed record
func NewLog() Log {
	return Log{RejectedReasons: []string{}}
}

// State derives the review state. RejectedBy wins over ApprovedBy.
func (l *Log) State() State {
	switch {
	case l.RejectedBy != nil:
		return Rejected
	case l.ApprovedBy != nil:
		return Approved
	}
	return Unreviewed
}

// StateOf derives the review state of a stored record
func StateOf(rec *record.Record) State {
	l := Log{ApprovedBy: rec.ApprovedBy, RejectedBy: rec.RejectedBy}
	return l.State()
}

// Lookup resolves reviewer names. A nil user with a nil error means the
// name is unknown.
type Lookup interface {
	Lookup(name string) (*user.User, error)
}

// Machine applies reviewer actions to review logs
type Machine struct {
	users Lookup
	log   *zap.Logger
}

// NewMachine creates a machine resolving reviewers through users
func NewMachine(users Lookup, log *zap.Logger) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{users: users, log: log}
}

// Approve records an approval by the named reviewer.
// Unknown reviewers are reported and ignored; the returned bool tells
// whether the log changed.
func (m *Machine) Approve(l *Log, name string) (bool, error) {
	u, err := m.users.Lookup(name)
	if err != nil {
		return false, fmt.Errorf("approve: %w", err)
	}
	if u == nil {
		m.log.Warn("not approving this reaction", zap.String("user", name))
		return false, nil
	}

	if l.ApprovedBy == nil {
		l.ApprovedBy = record.NameList{}
	}
	if l.RejectedBy != nil && u.Status.CanOverrideRejection() {
		// RejectedReasons is left untouched and keeps the override history.
		l.RejectedBy = nil
		m.log.Info("rejection overridden", zap.String("user", u.Name))
	}
	l.ApprovedBy = append(l.ApprovedBy, u.Name)
	return true, nil
}

// Reject records a rejection by the named reviewer with a reason.
// Unknown reviewers are reported and ignored.
func (m *Machine) Reject(l *Log, name, reason string) (bool, error) {
	u, err := m.users.Lookup(name)
	if err != nil {
		return false, fmt.Errorf("reject: %w", err)
	}
	if u == nil {
		m.log.Warn("not rejecting this reaction", zap.String("user", name))
		return false, nil
	}

	if l.RejectedBy == nil {
		l.RejectedBy = record.NameList{}
	}
	l.RejectedBy = append(l.RejectedBy, u.Name)
	l.RejectedReasons = append(l.RejectedReasons, reason)
	return true, nil
}
