package storage

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ErrNotFound - the requested post or option does not exist.
var ErrNotFound = errors.New("not found")

// Post types and statuses with special handling.
const (
	TypePost       = "post"
	TypePage       = "page"
	TypeNavMenu    = "nav_menu_item"
	TypeAttachment = "attachment"
	TypeRevision   = "revision"

	StatusInherit   = "inherit"
	StatusTrash     = "trash"
	StatusAutoDraft = "auto-draft"
)

// BuiltinPostTypes are the post types WordPress core registers itself.
// Anything else found in the posts table is a custom post type.
var BuiltinPostTypes = map[string]bool{
	TypePost:              true,
	TypePage:              true,
	TypeAttachment:        true,
	TypeRevision:          true,
	TypeNavMenu:           true,
	"custom_css":          true,
	"customize_changeset": true,
	"oembed_cache":        true,
	"user_request":        true,
	"wp_block":            true,
	"wp_template":         true,
	"wp_template_part":    true,
	"wp_global_styles":    true,
	"wp_navigation":       true,
	"wp_font_family":      true,
	"wp_font_face":        true,
}

// revisionedTypes keep a snapshot of the previous body on update.
var revisionedTypes = map[string]bool{TypePost: true, TypePage: true}

// Post is a row of the posts table, restricted to the columns relocation
// reads or writes.
type Post struct {
	ID       int64
	Type     string
	Status   string
	Title    string
	Name     string
	Content  string
	GUID     string
	Parent   int64
	MimeType string
	Modified time.Time
}

// PostQuery selects posts. IDs, when set, restrict the result to those
// posts; Types, when set, restrict it to those post types. Trashed and
// auto-draft posts are never returned.
type PostQuery struct {
	IDs   []int64
	Types []string
}

//go:generate mockgen -source=storage.go -destination=../mocks/mock_store.go -package=mocks

// Store is everything relocation needs from the WordPress database.
type Store interface {
	// QueryPosts returns the posts matching q ordered by ID.
	QueryPosts(ctx context.Context, q PostQuery) ([]Post, error)
	// PostTypes lists the distinct post types present in the posts table.
	PostTypes(ctx context.Context) ([]string, error)
	// UpdatePost saves p's content, recording a revision of the previous body
	// when versioning is enabled for p's type. It returns the updated post ID.
	UpdatePost(ctx context.Context, p Post) (int64, error)
	// InsertAttachment stores an attachment: an existing ID is updated in
	// place, a zero ID inserts a new row. It returns the attachment ID.
	InsertAttachment(ctx context.Context, p Post) (int64, error)
	// AutoloadOptions returns the raw values of every autoloaded option.
	AutoloadOptions(ctx context.Context) (map[string]string, error)
	// GetOption returns the raw value of an option, or ErrNotFound.
	GetOption(ctx context.Context, name string) (string, error)
	// UpdateOption writes the raw value of an option, adding it when missing.
	UpdateOption(ctx context.Context, name, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// RevisionName is the post_name WordPress gives the first revision of a post.
func RevisionName(id int64) string {
	return strconv.FormatInt(id, 10) + "-revision-v1"
}
