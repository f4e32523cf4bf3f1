// Package service is the entry point for every article operation. It
// resolves who is calling, loads from the right root, validates records and
// applies the visibility rules before anything leaves the package.
package service

import (
	"context"
	"errors"
	"fmt"
	"geoblog/internal/domain/content"
	domainerr "geoblog/internal/domain/errors"
	"geoblog/internal/ingest"
	"geoblog/internal/policy"
	"geoblog/internal/store"
	"github.com/rs/zerolog"
	"regexp"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var createName = regexp.MustCompile(`^[a-z0-9_-]+$`)

type Store interface {
	LoadAll(r store.Root) ([]ingest.Entry, error)
	LoadOne(r store.Root, name string) (ingest.Entry, error)
	Names(r store.Root) ([]string, error)
	Write(r store.Root, name string, meta content.MDField, body string) error
	Remove(r store.Root, name string) error
}

// Authorizer answers whether the caller carried by ctx is an admin.
type Authorizer interface {
	IsAdmin(ctx context.Context) bool
}

// GeoResolver maps a client address to a country code.
type GeoResolver interface {
	ResolveCountry(ip string) (string, bool)
}

type Options struct {
	Store Store
	Auth  Authorizer
	Geo   GeoResolver // nil means no caller ever resolves
	Now   func() time.Time
	Log   zerolog.Logger
}

type ArticleService struct {
	store Store
	auth  Authorizer
	geo   GeoResolver
	now   func() time.Time
	log   zerolog.Logger
}

func New(opt Options) *ArticleService {
	now := opt.Now
	if now == nil {
		now = time.Now
	}
	return &ArticleService{
		store: opt.Store,
		auth:  opt.Auth,
		geo:   opt.Geo,
		now:   now,
		log:   opt.Log,
	}
}

func rootOf(drafts bool) store.Root {
	if drafts {
		return store.Drafts
	}
	return store.Published
}

func (s *ArticleService) isAdmin(ctx context.Context) bool {
	return s.auth != nil && s.auth.IsAdmin(ctx)
}

// Caller resolves the identity the visibility rules are applied to. Admins
// skip the geo lookup.
func (s *ArticleService) Caller(ctx context.Context) policy.Caller {
	if s.isAdmin(ctx) {
		return policy.Caller{Admin: true}
	}
	ip := ClientIP(ctx)
	if ip == "" || s.geo == nil {
		return policy.Caller{}
	}
	cc, ok := s.geo.ResolveCountry(ip)
	if !ok {
		return policy.Caller{}
	}
	return policy.Caller{Country: cc}
}

// List returns the visible articles of a root, newest first. A single
// record that fails validation fails the whole call with ErrInvalidData.
func (s *ArticleService) List(ctx context.Context, tag string, drafts bool) ([]content.Article, error) {
	caller := s.Caller(ctx)
	if drafts && !caller.Admin {
		return nil, domainerr.ErrUnauthorized
	}

	all, err := s.loadValid(ctx, rootOf(drafts))
	if err != nil {
		return nil, err
	}

	out := policy.FilterVisible(all, caller, policy.Filter{Tag: tag, SkipGeo: drafts})
	policy.SortByDate(out)
	return out, nil
}

// Get returns one article. A missing or malformed file is ErrNotFound; a
// record the caller may not see is ErrUnauthorized.
func (s *ArticleService) Get(ctx context.Context, name string, drafts bool) (content.Article, error) {
	caller := s.Caller(ctx)
	if drafts && !caller.Admin {
		return content.Article{}, domainerr.ErrUnauthorized
	}

	e, err := s.store.LoadOne(rootOf(drafts), name)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidFrontMatter) {
			return content.Article{}, fmt.Errorf("%s: %w", content.FileName(name), domainerr.ErrNotFound)
		}
		return content.Article{}, s.storageFailure(ctx, "get", err)
	}
	if err := expired(ctx, "get"); err != nil {
		return content.Article{}, err
	}

	meta, err := content.ValidateMeta(e.Fields)
	if err != nil {
		s.logger(ctx).Warn().Err(err).Str("file", e.Filename).Msg("article failed validation")
		return content.Article{}, fmt.Errorf("%s: %w", e.Filename, domainerr.ErrNotFound)
	}

	if !drafts && !policy.GeoAllowed(meta, caller) {
		return content.Article{}, domainerr.ErrUnauthorized
	}
	return content.Article{Filename: e.Filename, Meta: meta, Content: e.Content}, nil
}

// TagCounts counts tags over what List would return for the caller.
func (s *ArticleService) TagCounts(ctx context.Context, drafts bool) (map[string]int, error) {
	visible, err := s.List(ctx, "", drafts)
	if err != nil {
		return nil, err
	}
	return policy.TagCounts(visible), nil
}

// Save writes an article, replacing any existing file of the same name.
// The date is always set to today.
func (s *ArticleService) Save(ctx context.Context, name string, meta content.MDField, body string, drafts bool) (content.Article, error) {
	if !s.isAdmin(ctx) {
		return content.Article{}, domainerr.ErrUnauthorized
	}

	meta.Date = s.now().Format(dateLayout)
	meta.Normalize()
	if err := meta.Validate(); err != nil {
		return content.Article{}, err
	}

	if err := expired(ctx, "save"); err != nil {
		return content.Article{}, err
	}

	r := rootOf(drafts)
	if err := s.store.Write(r, name, meta, body); err != nil {
		if errors.Is(err, domainerr.ErrInvalid) {
			return content.Article{}, err
		}
		return content.Article{}, s.storageFailure(ctx, "save", err)
	}

	s.logger(ctx).Info().Str("file", content.FileName(name)).Stringer("root", r).Msg("article saved")
	return content.Article{Filename: content.FileName(name), Meta: meta, Content: body}, nil
}

// Create is Save for a new name. Names are lowercase letters, digits, '-'
// and '_', and must not match any existing article in either root, ignoring
// case.
func (s *ArticleService) Create(ctx context.Context, name string, meta content.MDField, body string, drafts bool) (content.Article, error) {
	if !s.isAdmin(ctx) {
		return content.Article{}, domainerr.ErrUnauthorized
	}

	if !createName.MatchString(name) {
		var ve domainerr.ValidationError
		ve.Add("filename", "use lowercase letters, digits, '-' or '_' only")
		return content.Article{}, ve
	}

	for _, r := range []store.Root{store.Published, store.Drafts} {
		names, err := s.store.Names(r)
		if err != nil {
			return content.Article{}, s.storageFailure(ctx, "create", err)
		}
		for _, existing := range names {
			if strings.EqualFold(existing, name) {
				return content.Article{}, fmt.Errorf("%s in %s: %w", existing, r, domainerr.ErrConflict)
			}
		}
	}

	return s.Save(ctx, name, meta, body, drafts)
}

// Delete removes an article permanently.
func (s *ArticleService) Delete(ctx context.Context, name string, drafts bool) error {
	if !s.isAdmin(ctx) {
		return domainerr.ErrUnauthorized
	}

	if err := expired(ctx, "delete"); err != nil {
		return err
	}

	r := rootOf(drafts)
	if err := s.store.Remove(r, name); err != nil {
		if errors.Is(err, domainerr.ErrNotFound) {
			return err
		}
		return s.storageFailure(ctx, "delete", err)
	}

	s.logger(ctx).Info().Str("file", content.FileName(name)).Stringer("root", r).Msg("article deleted")
	return nil
}

// PublicIndex lists published articles that carry no geo restriction,
// newest first. It does not depend on the caller.
func (s *ArticleService) PublicIndex(ctx context.Context) ([]content.Article, error) {
	all, err := s.loadValid(ctx, store.Published)
	if err != nil {
		return nil, err
	}
	out := make([]content.Article, 0, len(all))
	for _, a := range all {
		if !a.Meta.Restricted() {
			out = append(out, a)
		}
	}
	policy.SortByDate(out)
	return out, nil
}

func (s *ArticleService) loadValid(ctx context.Context, r store.Root) ([]content.Article, error) {
	entries, err := s.store.LoadAll(r)
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidFrontMatter) {
			s.logger(ctx).Error().Err(err).Stringer("root", r).Msg("unreadable front matter")
			return nil, fmt.Errorf("%s: %w", r, domainerr.ErrInvalidData)
		}
		return nil, s.storageFailure(ctx, "list", err)
	}
	if err := expired(ctx, "list"); err != nil {
		return nil, err
	}

	out := make([]content.Article, 0, len(entries))
	for _, e := range entries {
		meta, err := content.ValidateMeta(e.Fields)
		if err != nil {
			s.logger(ctx).Error().Err(err).Str("file", e.Filename).Stringer("root", r).Msg("article failed validation")
			return nil, fmt.Errorf("%s: %w", e.Filename, domainerr.ErrInvalidData)
		}
		out = append(out, content.Article{Filename: e.Filename, Meta: meta, Content: e.Content})
	}
	return out, nil
}

// expired reports a request that ran out of time before its result could be
// used. Writes are not started after that point.
func expired(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// storageFailure logs err and makes sure it reads as a storage error.
func (s *ArticleService) storageFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, domainerr.ErrNotFound) {
		return err
	}
	s.logger(ctx).Error().Err(err).Str("op", op).Msg("storage failure")
	if errors.Is(err, domainerr.ErrStorage) {
		return err
	}
	return &domainerr.StorageError{Op: op, Err: err}
}

// logger prefers the request logger carried by ctx.
func (s *ArticleService) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}
