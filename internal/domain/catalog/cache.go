package catalog

import (
	"context"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

type fetchKind string

const (
	kindProducts   fetchKind = "products"
	kindCategories fetchKind = "categories"
)

// result is the outcome of one fetch. Exactly one of err and the payload
// for its kind is meaningful.
type result struct {
	kind       fetchKind
	products   []Product
	categories []string
	err        error
}

// Option configures a Cache.
type Option func(*Cache)

// WithMeterProvider sets the meter provider used for fetch counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Cache) { c.meterProvider = mp }
}

// WithTracerProvider sets the tracer provider used for fetch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Cache) { c.tracerProvider = tp }
}

// Cache keeps the last known product and category lists.
//
// Fetches are not de-duplicated: concurrent calls each hit the source and the
// last one to finish determines the state. A failed fetch keeps the previous
// list and records its message in the shared Error field.
type Cache struct {
	source Source

	mu    sync.Mutex
	state State

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	fetches        metric.Int64Counter
}

// NewCache creates an empty Cache reading from source.
func NewCache(source Source, opts ...Option) (*Cache, error) {
	c := &Cache{
		source:         source,
		meterProvider:  metricnoop.NewMeterProvider(),
		tracerProvider: tracenoop.NewTracerProvider(),
	}
	for _, o := range opts {
		o(c)
	}

	const scope = "github.com/xenking/pos-backoffice/internal/domain/catalog"
	c.tracer = c.tracerProvider.Tracer(scope)

	fetches, err := c.meterProvider.Meter(scope).Int64Counter("catalog.fetches",
		metric.WithDescription("Catalog fetches by kind and outcome"),
	)
	if err != nil {
		return nil, err
	}
	c.fetches = fetches

	return c, nil
}

// FetchProducts reads the product list from the source. On success the
// cached products are replaced; on failure they are kept and Error is set.
// The returned error is the source error, already recorded in the state.
func (c *Cache) FetchProducts(ctx context.Context) error {
	c.begin(kindProducts)

	ctx, span := c.tracer.Start(ctx, "catalog.FetchProducts")
	defer span.End()

	products, err := c.source.Products(ctx)
	c.settle(ctx, span, result{kind: kindProducts, products: products, err: err})
	return err
}

// FetchCategories reads the category list from the source, with the same
// contract as FetchProducts.
func (c *Cache) FetchCategories(ctx context.Context) error {
	c.begin(kindCategories)

	ctx, span := c.tracer.Start(ctx, "catalog.FetchCategories")
	defer span.End()

	categories, err := c.source.Categories(ctx)
	c.settle(ctx, span, result{kind: kindCategories, categories: categories, err: err})
	return err
}

// Refresh runs both fetches concurrently and returns the first error.
func (c *Cache) Refresh(ctx context.Context) error {
	// Plain group: one failed fetch must not cancel the other.
	var g errgroup.Group
	g.Go(func() error { return c.FetchProducts(ctx) })
	g.Go(func() error { return c.FetchCategories(ctx) })
	return g.Wait()
}

// SetSearchTerm stores the client-side filter term.
func (c *Cache) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchTerm = term
}

// Snapshot returns a copy of the current state.
func (c *Cache) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Products = slices.Clone(c.state.Products)
	s.Categories = slices.Clone(c.state.Categories)
	return s
}

func (c *Cache) begin(kind fetchKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch kind {
	case kindProducts:
		c.state.Loading = true
	case kindCategories:
		c.state.CatLoading = true
	}
}

// settle is the single point where fetch results reach the state.
func (c *Cache) settle(ctx context.Context, span trace.Span, r result) {
	outcome := "success"
	if r.err != nil {
		outcome = "failure"
		span.RecordError(r.err)
		span.SetStatus(codes.Error, r.err.Error())
	}
	c.fetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(r.kind)),
		attribute.String("outcome", outcome),
	))

	c.mu.Lock()
	defer c.mu.Unlock()

	switch r.kind {
	case kindProducts:
		c.state.Loading = false
		if r.err == nil {
			c.state.Products = r.products
		}
	case kindCategories:
		c.state.CatLoading = false
		if r.err == nil {
			c.state.Categories = r.categories
		}
	}
	if r.err != nil {
		c.state.Error = r.err.Error()
	}
}
