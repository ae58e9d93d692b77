// Package services contains the implementation of RelocateServ.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"relocate/internal/config"
	"relocate/internal/domain/models"
	"relocate/internal/phpserial"
	"relocate/internal/relocate"
	"relocate/internal/storage"
)

//go:generate mockgen -source=relocate_service.go -destination=mocks/mock_relocate_service.go -package=mocks

// Validation errors, checked in this order.
var (
	ErrMissingNewURL     = errors.New("new site URL missing")
	ErrInvalidOldSiteURL = errors.New("old site URL cannot be used in the replacement process")
	ErrInvalidNewSiteURL = errors.New("new site URL cannot be used as a site URL")
)

// OptionSiteURL holds the current site URL.
const OptionSiteURL = "siteurl"

// RelocateRequest describes one relocation. An empty OldURL means the
// current site URL.
type RelocateRequest struct {
	OldURL        string
	NewURL        string
	Options       bool
	Attachments   bool
	Content       bool
	PostIDs       []int64
	AttachmentIDs []int64
	OptionNames   []string
	OptionValues  map[string]phpserial.Value
	DryRun        bool
}

// Failure is an item that was not stored, or stored only in part.
type Failure struct {
	Kind  string
	Key   string
	Error string
}

// Report is the outcome of a relocation.
type Report struct {
	RunID                string
	OldURL               string
	NewURL               string
	DryRun               bool
	OptionsProcessed     int
	AttachmentsProcessed int
	PostsProcessed       int
	Skipped              int
	Failures             []Failure
	Warnings             []Failure
	Summary              relocate.Summary
}

// LoginURL is where the relocated site expects its users to sign in.
func (r Report) LoginURL() string {
	return r.NewURL + "/wp-login.php"
}

type RelocateService interface {
	// CurrentSiteURL returns the siteurl option, or "" when it is not set.
	CurrentSiteURL(ctx context.Context) (string, error)
	// Prepare normalizes req, fills in the old URL and validates both URLs.
	Prepare(ctx context.Context, req RelocateRequest) (RelocateRequest, error)
	// Relocate prepares req and runs the selected replacements.
	Relocate(ctx context.Context, req RelocateRequest) (Report, error)
	Ping(ctx context.Context) error
}

type RelocateServ struct {
	config   *config.Config
	store    storage.Store
	recorder relocate.Recorder
	hooks    relocate.Hooks
	sugar    *zap.SugaredLogger
}

// NewRelocateService creates a RelocateService. recorder may be nil.
func NewRelocateService(conf *config.Config, store storage.Store, recorder relocate.Recorder,
	hooks relocate.Hooks, sugar *zap.SugaredLogger,
) RelocateService {
	return &RelocateServ{
		config:   conf,
		store:    store,
		recorder: recorder,
		hooks:    hooks,
		sugar:    sugar,
	}
}

func (s *RelocateServ) CurrentSiteURL(ctx context.Context) (string, error) {
	v, err := s.store.GetOption(ctx, OptionSiteURL)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading site URL: %w", err)
	}
	return NormalizeURL(v), nil
}

// NormalizeURL trims whitespace and trailing slashes.
func NormalizeURL(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), `/\`)
}

func (s *RelocateServ) Prepare(ctx context.Context, req RelocateRequest) (RelocateRequest, error) {
	req.OldURL = NormalizeURL(req.OldURL)
	req.NewURL = NormalizeURL(req.NewURL)
	if req.OldURL == "" {
		current, err := s.CurrentSiteURL(ctx)
		if err != nil {
			return req, err
		}
		req.OldURL = current
	}

	switch {
	case req.NewURL == "":
		return req, ErrMissingNewURL
	case !relocate.IsValidSiteURL(req.OldURL):
		return req, ErrInvalidOldSiteURL
	case !relocate.IsValidSiteURL(req.NewURL):
		return req, ErrInvalidNewSiteURL
	}
	return req, nil
}

func (s *RelocateServ) Relocate(ctx context.Context, req RelocateRequest) (Report, error) {
	req, err := s.Prepare(ctx, req)
	if err != nil {
		return Report{}, err
	}
	rule, err := relocate.NewRule(req.OldURL, req.NewURL)
	if err != nil {
		return Report{}, err
	}

	store := s.store
	opts := []relocate.Option{
		relocate.WithLogger(s.sugar),
		relocate.WithHooks(s.hooks),
		relocate.WithPostTypes(s.config.PostTypes...),
	}
	if s.recorder != nil {
		opts = append(opts, relocate.WithRecorder(s.recorder))
	}
	if s.config.SkipUnchanged {
		opts = append(opts, relocate.WithSkipUnchanged())
	}
	if req.DryRun {
		store = storage.DryRun(store)
		opts = append(opts, relocate.WithDryRun())
	}

	r := relocate.NewRelocator(store, rule, opts...)
	s.sugar.Infow("relocation started",
		"run_id", r.RunID(), "old", req.OldURL, "new", req.NewURL, "dry_run", req.DryRun)

	sum, err := r.Run(ctx, relocate.Plan{
		Options:       req.Options,
		OptionSet:     relocate.OptionSelection{Names: req.OptionNames, Values: req.OptionValues},
		Attachments:   req.Attachments,
		AttachmentIDs: req.AttachmentIDs,
		Content:       req.Content,
		PostIDs:       req.PostIDs,
	})
	report := newReport(req, sum)
	if err != nil {
		return report, fmt.Errorf("relocation %s: %w", sum.RunID, err)
	}
	return report, nil
}

func (s *RelocateServ) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func newReport(req RelocateRequest, sum relocate.Summary) Report {
	report := Report{
		RunID:   sum.RunID,
		OldURL:  req.OldURL,
		NewURL:  req.NewURL,
		DryRun:  req.DryRun,
		Summary: sum,
	}
	if o := sum.Options; o != nil {
		report.OptionsProcessed = len(o.Updated)
		report.Failures = appendFailures(report.Failures, models.KindOption, o.Failed)
		report.Warnings = appendFailures(report.Warnings, models.KindOption, o.Warnings)
	}
	if a := sum.Attachments; a != nil {
		report.AttachmentsProcessed = len(a.Updated)
		report.Skipped += len(a.Skipped)
		report.Failures = appendFailures(report.Failures, models.KindAttachment, idKeys(a.Failed))
		report.Warnings = appendFailures(report.Warnings, models.KindAttachment, idKeys(a.Warnings))
	}
	if p := sum.Posts; p != nil {
		report.PostsProcessed = len(p.Updated)
		report.Skipped += len(p.Skipped)
		report.Failures = appendFailures(report.Failures, models.KindPost, idKeys(p.Failed))
		report.Warnings = appendFailures(report.Warnings, models.KindPost, idKeys(p.Warnings))
	}
	return report
}

func appendFailures(dst []Failure, kind string, errs map[string]error) []Failure {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		dst = append(dst, Failure{Kind: kind, Key: k, Error: errs[k].Error()})
	}
	return dst
}

func idKeys(errs map[int64]error) map[string]error {
	out := make(map[string]error, len(errs))
	for id, err := range errs {
		out[strconv.FormatInt(id, 10)] = err
	}
	return out
}
