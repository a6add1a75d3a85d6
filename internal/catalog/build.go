package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"golang.org/x/sync/errgroup"

	"github.com/ancients-collective/guardrail/internal/definition"
	"github.com/ancients-collective/guardrail/internal/loader"
	"github.com/ancients-collective/guardrail/internal/types"
)

// maxWorkers caps per-service normalization concurrency.
const maxWorkers = 8

// ErrDuplicatePolicy reports two documents in one service sharing a display name.
var ErrDuplicatePolicy = errors.New("duplicate display name")

// Option configures Build.
type Option func(*builder)

// WithLogger sets the logger passed to the normalizer.
func WithLogger(l *slog.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.log = l
		}
	}
}

// WithWorkers overrides the worker count. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(b *builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

type builder struct {
	log     *slog.Logger
	workers int
}

// serviceResult is written by exactly one worker.
type serviceResult struct {
	service   *Service
	errs      []error
	malformed int
}

// Build normalizes raw documents into a catalog. Services are processed in
// parallel; documents within a service keep their input order, so the first
// of two documents with the same display name wins. Malformed documents and
// duplicates are returned in the error slice and skipped.
func Build(ctx context.Context, docs []loader.Document, opts ...Option) (*Catalog, []error) {
	b := &builder{log: slog.New(slog.DiscardHandler), workers: defaultWorkers()}
	for _, opt := range opts {
		opt(b)
	}

	var order []string
	grouped := make(map[string][]loader.Document)
	for _, d := range docs {
		if _, ok := grouped[d.Service]; !ok {
			order = append(order, d.Service)
		}
		grouped[d.Service] = append(grouped[d.Service], d)
	}

	results := make([]serviceResult, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, name := range order {
		g.Go(func() error {
			res, err := b.buildService(gctx, name, grouped[name])
			results[i] = res
			return err
		})
	}
	waitErr := g.Wait()

	c := &Catalog{services: make(map[string]*Service, len(order))}
	var errs []error
	for _, res := range results {
		if res.service != nil {
			c.services[res.service.name] = res.service
		}
		errs = append(errs, res.errs...)
		c.malformed += res.malformed
	}
	if waitErr != nil {
		errs = append(errs, fmt.Errorf("catalog build interrupted: %w", waitErr))
	}

	b.log.Debug("catalog built",
		"services", len(c.services),
		"documents", len(docs),
		"malformed", c.malformed,
		"workers", b.workers)
	return c, errs
}

func (b *builder) buildService(ctx context.Context, name string, docs []loader.Document) (serviceResult, error) {
	svc := &Service{name: name, policies: make(map[string]*types.PolicyDefinition, len(docs))}
	res := serviceResult{service: svc}
	files := make(map[string]string, len(docs))

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		def, err := definition.Parse(d.Data, name, d.File, definition.WithLogger(b.log))
		if err != nil {
			var malformed *definition.MalformedDocumentError
			if errors.As(err, &malformed) {
				res.malformed++
			}
			res.errs = append(res.errs, err)
			continue
		}

		if first, dup := files[def.DisplayName]; dup {
			res.errs = append(res.errs, fmt.Errorf("%s/%s: %w %q (first defined in %s)",
				name, d.File, ErrDuplicatePolicy, def.DisplayName, first))
			continue
		}
		files[def.DisplayName] = d.File
		svc.policies[def.DisplayName] = def
	}
	return res, nil
}

// defaultWorkers sizes the pool from the logical CPU count.
func defaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, maxWorkers))
}
