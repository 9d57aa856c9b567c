package embeddings

import (
	"context"
	"fmt"
	"sync"
)

// Lazy defers constructing a Provider until the first Embed call. The
// constructor runs exactly once even under concurrent first use; afterwards
// the provider is read-only and shared without locking.
type Lazy struct {
	name  string
	model string
	init  func(ctx context.Context) (Provider, error)

	once     sync.Once
	provider Provider
	err      error
}

// NewLazy wraps init. name and model are reported before initialization.
func NewLazy(name, model string, init func(ctx context.Context) (Provider, error)) *Lazy {
	return &Lazy{name: name, model: model, init: init}
}

// Name returns the provider name
func (l *Lazy) Name() string { return l.name }

// Model returns the model name
func (l *Lazy) Model() string { return l.model }

// Get initializes the provider on first use and returns it
func (l *Lazy) Get(ctx context.Context) (Provider, error) {
	l.once.Do(func() {
		// a cancelled first caller must not poison initialization for everyone else
		l.provider, l.err = l.init(context.WithoutCancel(ctx))
		if l.err == nil && l.provider == nil {
			l.err = fmt.Errorf("%s: provider constructor returned nil", l.name)
		}
	})
	return l.provider, l.err
}

// Embed initializes the provider if needed and embeds text
func (l *Lazy) Embed(ctx context.Context, text string) ([]float32, error) {
	p, err := l.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize %s embeddings: %w", l.name, err)
	}
	return p.Embed(ctx, text)
}

// Health initializes the provider if needed and probes its backend
func (l *Lazy) Health(ctx context.Context) error {
	p, err := l.Get(ctx)
	if err != nil {
		return fmt.Errorf("initialize %s embeddings: %w", l.name, err)
	}
	return Check(ctx, p)
}
