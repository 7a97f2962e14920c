package payload

import (
	"context"

	"go.uber.org/zap"
)

// Mode selects which provider endpoint the components are shaped for.
type Mode int

const (
	Creation Mode = iota
	Send
)

func (m Mode) String() string {
	if m == Send {
		return "send"
	}
	return "creation"
}

// HandleStore returns a provider asset handle for a media reference,
// uploading it on a miss. Concurrent misses for the same key may upload more
// than once; the provider accepts duplicate uploads.
type HandleStore interface {
	GetOrUpload(ctx context.Context, key, contentRef string) (string, error)
}

// Builder assembles template components. It holds no per-call state and is
// safe for concurrent use.
type Builder struct {
	logger   *zap.Logger
	handles  HandleStore
	resolver Resolver
	siteURL  string
}

type Option func(*Builder)

func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithHandleStore(h HandleStore) Option {
	return func(b *Builder) { b.handles = h }
}

// WithSiteURL sets the base used to turn relative file references into links.
func WithSiteURL(u string) Option {
	return func(b *Builder) { b.siteURL = u }
}

func WithMissingPolicy(p MissingPolicy) Option {
	return func(b *Builder) { b.resolver.Missing = p }
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Resolve substitutes named markers using the builder's missing-field policy.
func (b *Builder) Resolve(text string, src Source) string {
	return b.resolver.Resolve(text, src)
}
