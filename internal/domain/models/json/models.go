// Package models provides the request and response bodies of the JSON API.
package models

// RelocateRequest - body of POST /api/relocate.
type RelocateRequest struct {
	// OldURL: URL to replace. Empty means the current site URL.
	OldURL string `json:"old_url"`
	// NewURL: URL the site moves to, without a trailing slash.
	NewURL string `json:"new_url"`
	// Options, Attachments, Content: parts to process. Omitted means true.
	Options     *bool `json:"options,omitempty"`
	Attachments *bool `json:"attachments,omitempty"`
	Content     *bool `json:"content,omitempty"`
	// PostIDs: restrict content replacement to these posts.
	PostIDs []int64 `json:"post_ids,omitempty"`
	// AttachmentIDs: restrict GUID replacement to these attachments.
	AttachmentIDs []int64 `json:"attachment_ids,omitempty"`
	// OptionNames: restrict option replacement to these options.
	OptionNames []string `json:"option_names,omitempty"`
	// OptionValues: replace in these values instead of the stored options.
	OptionValues map[string]any `json:"option_values,omitempty"`
	// DryRun: compute the changes without writing them.
	DryRun bool `json:"dry_run,omitempty"`
}

// Flag returns the value of an optional part flag.
func Flag(b *bool) bool {
	return b == nil || *b
}

// Failure - an item that was not stored, or stored only in part.
type Failure struct {
	Kind  string `json:"kind"`
	Key   string `json:"key"`
	Error string `json:"error"`
}

// RelocateResponse - outcome of a relocation.
type RelocateResponse struct {
	RunID                string `json:"run_id"`
	OldURL               string `json:"old_url"`
	NewURL               string `json:"new_url"`
	DryRun               bool   `json:"dry_run,omitempty"`
	OptionsProcessed     int    `json:"options_processed"`
	AttachmentsProcessed int    `json:"attachments_processed"`
	PostsProcessed       int    `json:"posts_processed"`
	Skipped              int    `json:"skipped,omitempty"`
	// Failures: items left unchanged because of an error.
	Failures []Failure `json:"failures,omitempty"`
	// Warnings: items stored with parts left unchanged.
	Warnings []Failure `json:"warnings,omitempty"`
	// Options: the rewritten option values, when values were supplied.
	Options  map[string]any `json:"options,omitempty"`
	LoginURL string         `json:"login_url"`
	// Error: set when the run stopped early.
	Error string `json:"error,omitempty"`
}

// ErrorResponse - body of a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PingResponse - body of GET /ping.
type PingResponse struct {
	Status string `json:"status"`
}
