package relocate

import (
	"errors"

	"relocate/internal/phpserial"
)

// ErrIdentityChanged - storing an attachment created a new record instead of
// updating the one that was read.
var ErrIdentityChanged = errors.New("attachment stored under a different ID")

// PostsResult reports a post content run.
type PostsResult struct {
	// Updated maps every post whose update reported its own ID back to that ID.
	Updated map[int64]int64
	// Skipped lists posts left alone because the rule did not change them.
	Skipped []int64
	// Failed maps posts that were not stored to the reason.
	Failed map[int64]error
	// Warnings maps stored posts to the parts the rule could not rewrite.
	Warnings map[int64]error
}

// AttachmentsResult reports an attachment GUID run.
type AttachmentsResult struct {
	// Updated maps every attachment stored under its own ID to its new GUID.
	Updated  map[int64]string
	Skipped  []int64
	Failed   map[int64]error
	Warnings map[int64]error
}

// OptionsResult reports an options run.
type OptionsResult struct {
	// Updated maps option names to the values written back.
	Updated  map[string]phpserial.Value
	Failed   map[string]error
	Warnings map[string]error
}

// Summary collects the results of a Run. Drivers that were not selected
// leave their result nil.
type Summary struct {
	RunID       string
	Options     *OptionsResult
	Attachments *AttachmentsResult
	Posts       *PostsResult
}

// Failures counts the items that were not stored.
func (s Summary) Failures() int {
	n := 0
	if s.Options != nil {
		n += len(s.Options.Failed)
	}
	if s.Attachments != nil {
		n += len(s.Attachments.Failed)
	}
	if s.Posts != nil {
		n += len(s.Posts.Failed)
	}
	return n
}

func newPostsResult() *PostsResult {
	return &PostsResult{
		Updated:  make(map[int64]int64),
		Failed:   make(map[int64]error),
		Warnings: make(map[int64]error),
	}
}

func newAttachmentsResult() *AttachmentsResult {
	return &AttachmentsResult{
		Updated:  make(map[int64]string),
		Failed:   make(map[int64]error),
		Warnings: make(map[int64]error),
	}
}

func newOptionsResult() *OptionsResult {
	return &OptionsResult{
		Updated:  make(map[string]phpserial.Value),
		Failed:   make(map[string]error),
		Warnings: make(map[string]error),
	}
}
