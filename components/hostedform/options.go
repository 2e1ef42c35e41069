package hostedform

import (
	"context"
	"log"
	"os"
	"sync"

	"github.com/goliatone/go-formflow/internal/store"
	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/formdef"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/renderers/classic"
)

// Store is the persistence surface the component needs. Implemented by
// *store.Store.
type Store interface {
	GetDefinition(ctx context.Context, id string) (*formdef.Definition, error)
	SaveSubmission(ctx context.Context, sub store.Submission) (store.Submission, error)
}

type Options struct {
	Store       Store
	Renderers   *render.Registry
	Renderer    string
	BasePath    string
	FlowOptions []flow.Option
	Logger      *log.Logger
}

type OptionFn func(*Options)

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *render.Registry
)

// DefaultRegistry returns a shared registry holding the classic
// renderer.
func DefaultRegistry() *render.Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = render.NewRegistry()
		if renderer, err := classic.New(); err == nil {
			defaultRegistry.MustRegister(renderer)
		}
	})
	return defaultRegistry
}

func DefaultOptions() Options {
	return Options{
		Renderer: "classic",
		Logger:   log.New(os.Stderr, "[hostedform] ", log.LstdFlags),
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.Renderer == "" {
		opts.Renderer = "classic"
	}
	if opts.Renderers == nil {
		opts.Renderers = DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[hostedform] ", log.LstdFlags)
	}
	if opts.FlowOptions != nil {
		opts.FlowOptions = append([]flow.Option{}, opts.FlowOptions...)
	}
	return opts
}

// WithStore sets the backing store for definitions and submissions.
func WithStore(s Store) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Store = s
	}
}

// WithRegistry replaces the renderer registry.
func WithRegistry(registry *render.Registry) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderers = registry
	}
}

// WithRenderer selects the registered renderer used for form pages.
func WithRenderer(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Renderer = name
	}
}

// WithBasePath sets the mount prefix assumed by the standalone handler.
func WithBasePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.BasePath = path
	}
}

// WithFlowOptions forwards engine options (field cap, cursor,
// evaluator) to every resolve pass.
func WithFlowOptions(opts ...flow.Option) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.FlowOptions = append(o.FlowOptions, opts...)
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *log.Logger) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Logger = logger
	}
}
