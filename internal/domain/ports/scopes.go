package ports

import (
	"fmt"
	"strconv"
	"strings"
)

// EmptyScope represents an empty scope
type EmptyScope struct{}

// IsEmpty returns true for EmptyScope
func (EmptyScope) IsEmpty() bool {
	return true
}

// String returns a string representation of EmptyScope
func (EmptyScope) String() string {
	return "empty"
}

// IDScope selects records by primary id
type IDScope struct {
	IDs []int64
}

func (s IDScope) IsEmpty() bool {
	return len(s.IDs) == 0
}

func (s IDScope) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	parts := make([]string, 0, len(s.IDs))
	for _, id := range s.IDs {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return fmt.Sprintf("ids(%s)", strings.Join(parts, ","))
}

// NewIDScope creates a new IDScope
func NewIDScope(ids ...int64) IDScope {
	return IDScope{IDs: ids}
}

// CloudScope selects records of one cloud
type CloudScope struct {
	CloudID int64
}

func (s CloudScope) IsEmpty() bool { return false }

func (s CloudScope) String() string { return fmt.Sprintf("cloud(%d)", s.CloudID) }

// CategoryScope selects reference data or resource pools of one (cloud, category) namespace
type CategoryScope struct {
	CloudID  int64
	Category string
}

func (s CategoryScope) IsEmpty() bool { return false }

func (s CategoryScope) String() string {
	return fmt.Sprintf("category(%d,%s)", s.CloudID, s.Category)
}

// ExternalIDScope selects records by provider-side identifier
type ExternalIDScope struct {
	ExternalIDs []string
}

func (s ExternalIDScope) IsEmpty() bool {
	return len(s.ExternalIDs) == 0
}

func (s ExternalIDScope) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("external-ids(%s)", strings.Join(s.ExternalIDs, ","))
}

// NewExternalIDScope creates a new ExternalIDScope
func NewExternalIDScope(externalIDs ...string) ExternalIDScope {
	return ExternalIDScope{ExternalIDs: externalIDs}
}

// AccountScope selects records owned by one account
type AccountScope struct {
	AccountID int64
}

func (s AccountScope) IsEmpty() bool { return false }

func (s AccountScope) String() string { return fmt.Sprintf("account(%d)", s.AccountID) }

// ServerScope selects containers placed on one compute server
type ServerScope struct {
	ServerID int64
}

func (s ServerScope) IsEmpty() bool { return false }

func (s ServerScope) String() string { return fmt.Sprintf("server(%d)", s.ServerID) }

// InstanceScope selects containers of one instance
type InstanceScope struct {
	InstanceID int64
}

func (s InstanceScope) IsEmpty() bool { return false }

func (s InstanceScope) String() string { return fmt.Sprintf("instance(%d)", s.InstanceID) }
