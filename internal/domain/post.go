// Package domain contains the core business entities and rules.
package domain

import "time"

// Post is one normalized tweet, produced by either collection path.
type Post struct {
	ID       string    `json:"tweet_id,omitempty"`
	Author   string    `json:"author"`
	PostedAt time.Time `json:"created"`
	Content  string    `json:"content"`
	IsQuote  bool      `json:"is_quote"`
}

// TargetKind selects which timeline a fetch reads.
type TargetKind string

const (
	TargetAccount TargetKind = "account"
	TargetList    TargetKind = "list"
)

// Target identifies a profile or a list timeline.
type Target struct {
	Kind TargetKind
	ID   string
}

// AccountTarget returns the target for an account's profile timeline.
func AccountTarget(account string) Target {
	return Target{Kind: TargetAccount, ID: account}
}

// ListTarget returns the target for a list timeline.
func ListTarget(listID string) Target {
	return Target{Kind: TargetList, ID: listID}
}

// Validate reports ErrInvalidTarget for an unknown kind or an empty id.
func (t Target) Validate() error {
	if t.ID == "" {
		return ErrInvalidTarget
	}
	switch t.Kind {
	case TargetAccount, TargetList:
		return nil
	default:
		return ErrInvalidTarget
	}
}

func (t Target) String() string {
	return string(t.Kind) + ":" + t.ID
}
