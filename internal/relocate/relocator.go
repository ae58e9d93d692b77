package relocate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"relocate/internal/domain/models"
	"relocate/internal/phpserial"
	"relocate/internal/storage"
)

// DefaultPostTypes are always searched when no post IDs are given.
var DefaultPostTypes = []string{storage.TypePost, storage.TypePage, storage.TypeNavMenu}

// Hooks let callers adjust what a run selects. A nil hook leaves the
// selection as is.
type Hooks struct {
	// PostTypes receives the post types searched when no IDs are given.
	PostTypes func(types []string) []string
	// Options receives every decoded autoload option when no names or
	// values are given.
	Options func(options map[string]phpserial.Value) map[string]phpserial.Value
}

//go:generate mockgen -source=relocator.go -destination=../mocks/mock_recorder.go -package=mocks

// Recorder receives one entry per persisted item.
type Recorder interface {
	Record(e models.JournalEntry) error
}

// OptionSelection chooses the options to rewrite. Names wins over Values;
// with neither, every autoload option is used.
type OptionSelection struct {
	// Names are read fresh from storage, in order.
	Names []string
	// Values are rewritten as given without reading storage.
	Values map[string]phpserial.Value
}

// Plan selects the drivers of a Run.
type Plan struct {
	Options       bool
	OptionSet     OptionSelection
	Attachments   bool
	AttachmentIDs []int64
	Content       bool
	PostIDs       []int64
}

// Relocator applies a Rule to the posts, attachments and options of a Store.
type Relocator struct {
	store         storage.Store
	rule          Rule
	hooks         Hooks
	recorder      Recorder
	log           *zap.SugaredLogger
	postTypes     []string
	skipUnchanged bool
	dryRun        bool
	runID         string
	now           func() time.Time
}

// Option configures a Relocator.
type Option func(*Relocator)

// WithHooks installs selection hooks.
func WithHooks(h Hooks) Option {
	return func(r *Relocator) { r.hooks = h }
}

// WithRecorder journals every persisted item.
func WithRecorder(rec Recorder) Option {
	return func(r *Relocator) { r.recorder = rec }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Relocator) { r.log = log }
}

// WithPostTypes adds post types to the default content selection.
func WithPostTypes(types ...string) Option {
	return func(r *Relocator) { r.postTypes = append(r.postTypes, types...) }
}

// WithSkipUnchanged stops posts and attachments the rule leaves unchanged
// from being stored again. By default every selected item is stored, which
// gives every post a new revision.
func WithSkipUnchanged() Option {
	return func(r *Relocator) { r.skipUnchanged = true }
}

// WithDryRun marks journal entries as not written. The store itself is
// expected to discard writes, see storage.DryRun.
func WithDryRun() Option {
	return func(r *Relocator) { r.dryRun = true }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(r *Relocator) { r.runID = id }
}

// NewRelocator creates a Relocator writing to store.
func NewRelocator(store storage.Store, rule Rule, opts ...Option) *Relocator {
	r := &Relocator{
		store: store,
		rule:  rule,
		log:   zap.NewNop().Sugar(),
		runID: uuid.NewString(),
		now:   time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RunID identifies the changes made by this Relocator in the journal.
func (r *Relocator) RunID() string { return r.runID }

// Run executes the selected drivers: options, then attachments, then post
// content. A driver that cannot select its items does not stop the others;
// a cancelled context does.
func (r *Relocator) Run(ctx context.Context, plan Plan) (Summary, error) {
	sum := Summary{RunID: r.runID}
	var errs error

	if plan.Options {
		res, err := r.ReplaceOptions(ctx, plan.OptionSet)
		sum.Options = res
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("options: %w", err))
		}
	}
	if plan.Attachments && ctx.Err() == nil {
		res, err := r.ReplaceAttachments(ctx, plan.AttachmentIDs...)
		sum.Attachments = res
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("attachments: %w", err))
		}
	}
	if plan.Content && ctx.Err() == nil {
		res, err := r.ReplacePostContent(ctx, plan.PostIDs...)
		sum.Posts = res
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("post content: %w", err))
		}
	}
	if err := ctx.Err(); err != nil && !errors.Is(errs, err) {
		errs = multierr.Append(errs, err)
	}

	r.log.Infow("relocation finished",
		"run_id", r.runID,
		"old", r.rule.Old(),
		"new", r.rule.New(),
		"failures", sum.Failures(),
	)
	return sum, errs
}

// ReplacePostContent rewrites the body of the given posts, or of every post
// of the searched types when no IDs are given. The returned error reports a
// failed selection or a cancelled context; per-post failures are in the
// result.
func (r *Relocator) ReplacePostContent(ctx context.Context, ids ...int64) (*PostsResult, error) {
	res := newPostsResult()

	q := storage.PostQuery{IDs: ids}
	if len(ids) == 0 {
		types, err := r.contentTypes(ctx)
		if err != nil {
			return res, err
		}
		if len(types) == 0 {
			return res, nil
		}
		q.Types = types
	}
	posts, err := r.store.QueryPosts(ctx, q)
	if err != nil {
		return res, fmt.Errorf("selecting posts: %w", err)
	}

	for _, p := range posts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		content, warn := r.rule.ReplaceString(p.Content)
		if r.skipUnchanged && content == p.Content {
			res.Skipped = append(res.Skipped, p.ID)
			continue
		}

		before := p.Content
		p.Content = content
		id, err := r.store.UpdatePost(ctx, p)
		switch {
		case err != nil:
			res.Failed[p.ID] = err
			r.log.Warnw("post not updated", "id", p.ID, "error", err)
			continue
		case id != p.ID:
			res.Failed[p.ID] = fmt.Errorf("update reported post %d", id)
			r.log.Warnw("post update reported another ID", "id", p.ID, "reported", id)
			continue
		}
		res.Updated[id] = p.ID
		if warn != nil {
			res.Warnings[p.ID] = warn
			r.log.Warnw("post partly rewritten", "id", p.ID, "error", warn)
		}
		r.record(models.KindPost, strconv.FormatInt(p.ID, 10), before, content)
	}

	r.log.Infow("post content replaced",
		"updated", len(res.Updated), "skipped", len(res.Skipped), "failed", len(res.Failed))
	return res, nil
}

// contentTypes returns the default post types plus custom ones, passed
// through the PostTypes hook.
func (r *Relocator) contentTypes(ctx context.Context) ([]string, error) {
	types := append([]string(nil), DefaultPostTypes...)
	types = append(types, r.postTypes...)

	stored, err := r.store.PostTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing post types: %w", err)
	}
	for _, t := range stored {
		if !storage.BuiltinPostTypes[t] {
			types = append(types, t)
		}
	}
	types = dedupe(types)

	if r.hooks.PostTypes != nil {
		types = r.hooks.PostTypes(types)
	}
	return types, nil
}

// ReplaceAttachments rewrites the GUID of the given attachments, or of every
// attachment when no IDs are given. Each attachment is stored again through
// InsertAttachment; one that comes back under another ID fails with
// ErrIdentityChanged.
func (r *Relocator) ReplaceAttachments(ctx context.Context, ids ...int64) (*AttachmentsResult, error) {
	res := newAttachmentsResult()

	attachments, err := r.store.QueryPosts(ctx, storage.PostQuery{
		IDs:   ids,
		Types: []string{storage.TypeAttachment},
	})
	if err != nil {
		return res, fmt.Errorf("selecting attachments: %w", err)
	}

	for _, a := range attachments {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		guid, warn := r.rule.ReplaceString(a.GUID)
		if r.skipUnchanged && guid == a.GUID {
			res.Skipped = append(res.Skipped, a.ID)
			continue
		}

		before := a.GUID
		a.GUID = guid
		id, err := r.store.InsertAttachment(ctx, a)
		switch {
		case err != nil:
			res.Failed[a.ID] = err
			r.log.Warnw("attachment not stored", "id", a.ID, "error", err)
			continue
		case id != a.ID:
			res.Failed[a.ID] = fmt.Errorf("attachment %d stored as %d: %w", a.ID, id, ErrIdentityChanged)
			r.log.Warnw("attachment stored under another ID", "id", a.ID, "stored", id)
			continue
		}
		res.Updated[id] = guid
		if warn != nil {
			res.Warnings[a.ID] = warn
		}
		r.record(models.KindAttachment, strconv.FormatInt(a.ID, 10), before, guid)
	}

	r.log.Infow("attachment GUIDs replaced",
		"updated", len(res.Updated), "skipped", len(res.Skipped), "failed", len(res.Failed))
	return res, nil
}

// ReplaceOptions rewrites the selected options and writes every one of them
// back, changed or not.
func (r *Relocator) ReplaceOptions(ctx context.Context, sel OptionSelection) (*OptionsResult, error) {
	res := newOptionsResult()

	names, options, stored, err := r.selectOptions(ctx, sel, res)
	if err != nil {
		return res, err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		value := options[name]
		replaced, warn := r.rule.Replace(value)

		before, after := phpserial.MaybeSerialize(value), phpserial.MaybeSerialize(replaced)
		if raw, ok := stored[name]; ok {
			before = raw
			// scalars such as b:0; do not survive a decode and re-encode
			if phpserial.Marshal(replaced) == phpserial.Marshal(decodeOption(raw)) {
				after = raw
			}
		}
		if err := r.store.UpdateOption(ctx, name, after); err != nil {
			res.Failed[name] = err
			r.log.Warnw("option not updated", "name", name, "error", err)
			continue
		}
		res.Updated[name] = replaced
		if warn != nil {
			res.Warnings[name] = warn
			r.log.Warnw("option partly rewritten", "name", name, "error", warn)
		}
		r.record(models.KindOption, name, before, after)
	}

	r.log.Infow("options replaced", "updated", len(res.Updated), "failed", len(res.Failed))
	return res, nil
}

// selectOptions returns the option names to process, in order, their
// current values and, for options read from storage, the raw stored text.
// Names that cannot be read are marked failed in res.
func (r *Relocator) selectOptions(ctx context.Context, sel OptionSelection, res *OptionsResult) (
	[]string, map[string]phpserial.Value, map[string]string, error,
) {
	switch {
	case len(sel.Names) > 0:
		names := dedupe(sel.Names)
		options := make(map[string]phpserial.Value, len(names))
		stored := make(map[string]string, len(names))
		selected := names[:0]
		for _, name := range names {
			raw, err := r.store.GetOption(ctx, name)
			if err != nil {
				res.Failed[name] = err
				r.log.Warnw("option not read", "name", name, "error", err)
				continue
			}
			options[name] = decodeOption(raw)
			stored[name] = raw
			selected = append(selected, name)
		}
		return selected, options, stored, nil

	case len(sel.Values) > 0:
		return sortedKeys(sel.Values), sel.Values, nil, nil
	}

	stored, err := r.store.AutoloadOptions(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading options: %w", err)
	}
	options := make(map[string]phpserial.Value, len(stored))
	for name, v := range stored {
		options[name] = decodeOption(v)
	}
	if r.hooks.Options != nil {
		options = r.hooks.Options(options)
	}
	return sortedKeys(options), options, stored, nil
}

// decodeOption unserializes a stored option. Broken serialized data stays a
// string, as WordPress does.
func decodeOption(raw string) phpserial.Value {
	v, _ := phpserial.MaybeUnserialize(raw)
	return v
}

func (r *Relocator) record(kind, key, before, after string) {
	if r.recorder == nil {
		return
	}
	err := r.recorder.Record(models.JournalEntry{
		RunID:  r.runID,
		Kind:   kind,
		Key:    key,
		Before: before,
		After:  after,
		DryRun: r.dryRun,
		Time:   r.now().UTC(),
	})
	if err != nil {
		r.log.Warnw("journal entry lost", "kind", kind, "key", key, "error", err)
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
