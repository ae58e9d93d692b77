package models

import "time"

// Kinds of journaled changes.
const (
	KindOption     = "option"
	KindAttachment = "attachment"
	KindPost       = "post"
)

// JournalEntry - one persisted change, stored as a JSON line.
type JournalEntry struct {
	// RunID: identifier shared by every change of one relocation.
	RunID string `json:"run_id"`
	// Kind: option, attachment or post.
	Kind string `json:"kind"`
	// Key: option name or post ID.
	Key string `json:"key"`
	// Before: stored value before the change.
	Before string `json:"before"`
	// After: stored value after the change.
	After string `json:"after"`
	// DryRun: the change was computed but not written.
	DryRun bool `json:"dry_run,omitempty"`
	// Time: when the change was persisted.
	Time time.Time `json:"time"`
}
