// Package hydrator replaces identifiers embedded in nested documents with the
// subdocuments they reference, using one batched resolver call per hydrate call.
//
// A path such as "comments.user" describes a traversal: when an intermediate
// value is a sequence, the remaining steps are applied to every element. The
// value found at the last step is either a single identifier or a sequence of
// identifiers. Every identifier reachable through any path in any document is
// collected once, handed to the Resolver in one call, and the resolved values
// are written back where the identifiers were found.
//
// Terminal keys ending in "_id" or "_ids" are renamed while hydrating:
// "user_id" becomes "user" and "user_ids" becomes the plural of "user".
package hydrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"document-hydrator/internal/inflect"
	"document-hydrator/internal/observability"
)

// Document is a nested key-value record. Hydration mutates documents in place.
type Document = map[string]any

// Path is a parsed dotted path, e.g. "blah.nested_stuff.user" -> ["blah", "nested_stuff", "user"].
type Path []string

// ParsePath splits a dotted path into steps. There is no escape for a literal '.'.
func ParsePath(path string) Path {
	return strings.Split(path, ".")
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Resolver turns a batch of identifiers into subdocuments.
//
// Resolve receives the distinct, non-null identifiers of one hydrate call in
// order of first discovery and must return exactly one value per identifier,
// positionally aligned with ids. A nil value marks an identifier that does not
// exist; it is written back as null.
type Resolver interface {
	Resolve(ctx context.Context, ids []any) ([]any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, ids []any) ([]any, error)

// Resolve calls f(ctx, ids).
func (f ResolverFunc) Resolve(ctx context.Context, ids []any) ([]any, error) {
	return f(ctx, ids)
}

// Pluralizer pluralizes the stem of a rewritten "_ids" key.
type Pluralizer interface {
	Pluralize(word string) string
}

var errNilResolver = errors.New("hydrator: resolver is required")

// Engine hydrates documents. It holds no per-call state and is safe for
// concurrent use on disjoint documents.
type Engine struct {
	pluralizer Pluralizer
	logger     *slog.Logger
	metrics    *observability.HydrationMetrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithPluralizer sets the pluralizer used for "_ids" keys. Defaults to inflect.Default().
func WithPluralizer(p Pluralizer) Option {
	return func(e *Engine) {
		e.pluralizer = p
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics enables hydration metrics.
func WithMetrics(metrics *observability.HydrationMetrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.pluralizer == nil {
		e.pluralizer = inflect.Default()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// HydrateDocument hydrates a single document in place and returns it.
//
// Example paths for
//
//	{"owner": 99, "clients": [100, 101], "comments": [{"user": 10}, {"user": 11}]}
//
// are "owner", "clients" and "comments.user".
func (e *Engine) HydrateDocument(ctx context.Context, doc Document, resolver Resolver, paths ...string) (Document, error) {
	if _, err := e.HydrateDocuments(ctx, []Document{doc}, resolver, paths...); err != nil {
		return doc, err
	}
	return doc, nil
}

// HydrateDocuments hydrates every document against every path with a single
// resolver call shared by all of them, and returns docs.
//
// The resolver is not called when no non-null identifier is found. Documents
// are only modified once the resolver has answered successfully; on error they
// are left as they were.
func (e *Engine) HydrateDocuments(ctx context.Context, docs []Document, resolver Resolver, paths ...string) ([]Document, error) {
	if resolver == nil {
		return docs, errNilResolver
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	parsed := make([]Path, len(paths))
	for i, p := range paths {
		parsed[i] = ParsePath(p)
	}

	b := newBatch(e.pluralizer)
	stats := observability.HydrationStats{
		Documents: len(docs),
		Paths:     len(paths),
	}

	for _, doc := range docs {
		for _, path := range parsed {
			if err := b.collect(doc, path); err != nil {
				stats.Duration = time.Since(start)
				e.metrics.RecordHydration(ctx, stats, observability.OutcomeInvalidIdentifier)
				return docs, err
			}
		}
	}
	stats.Identifiers = len(b.ids)
	stats.References = b.references

	if len(b.ids) == 0 {
		b.substitute()
		stats.Duration = time.Since(start)
		e.metrics.RecordHydration(ctx, stats, observability.OutcomeNoIdentifiers)
		e.logger.DebugContext(ctx, "hydration skipped resolver",
			slog.Int("documents", len(docs)),
			slog.Any("paths", paths),
			slog.Int("sites", len(b.sites)),
		)
		return docs, nil
	}

	resolveStart := time.Now()
	err := e.resolve(ctx, b, resolver)
	stats.ResolveDuration = time.Since(resolveStart)
	if err != nil {
		stats.Duration = time.Since(start)
		e.metrics.RecordHydration(ctx, stats, outcomeForError(err))
		e.logger.WarnContext(ctx, "hydration failed",
			slog.Int("documents", len(docs)),
			slog.Any("paths", paths),
			slog.Int("identifiers", len(b.ids)),
			slog.String("error", err.Error()),
		)
		return docs, err
	}

	b.substitute()
	stats.Duration = time.Since(start)
	e.metrics.RecordHydration(ctx, stats, observability.OutcomeSuccess)
	e.logger.DebugContext(ctx, "documents hydrated",
		slog.Int("documents", len(docs)),
		slog.Any("paths", paths),
		slog.Int("identifiers", len(b.ids)),
		slog.Int("references", b.references),
		slog.Int("sites", len(b.sites)),
		slog.Duration("duration", stats.Duration),
	)
	return docs, nil
}

func (e *Engine) resolve(ctx context.Context, b *batch, resolver Resolver) error {
	ctx, span := startHydratorSpan(ctx, "hydrator.resolve", len(b.ids), b.references)
	defer span.End()

	values, err := resolver.Resolve(ctx, b.ids)
	if err == nil && len(values) != len(b.ids) {
		err = fmt.Errorf("%w: resolver returned %d values for %d identifiers",
			ErrIncompleteResolution, len(values), len(b.ids))
	}
	finishHydratorSpan(span, err, outcomeForError(err))
	if err != nil {
		return err
	}

	b.values = values
	return nil
}

func outcomeForError(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, ErrIncompleteResolution):
		return observability.OutcomeIncomplete
	case errors.Is(err, ErrInvalidIdentifier):
		return observability.OutcomeInvalidIdentifier
	default:
		return observability.OutcomeResolverError
	}
}
