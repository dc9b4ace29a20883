package objgraph

import (
	"context"
	"reflect"
	"sync"
	"time"
)

// DefaultMaxDepth is the depth limit used when none is configured.
const DefaultMaxDepth = 3

type config struct {
	maxDepth   int
	shapes     bool
	unexported bool
	hierarchy  *Hierarchy
	hashers    map[HashAlgo]Hasher
	maskers    map[MaskType]Masker
}

// Option configures a Serializer.
type Option func(*config)

// WithMaxDepth bounds how deep the walk goes. The root is at depth 1; a value
// at depth d has its children emitted only when d < maxDepth. Values below 1
// make every call fail with ErrInvalidArgument.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// WithShapes attaches a Shape to every object node.
func WithShapes() Option {
	return func(c *config) { c.shapes = true }
}

// WithUnexported walks unexported struct fields as well.
func WithUnexported() Option {
	return func(c *config) { c.unexported = true }
}

// WithHierarchy replaces the default type hierarchy.
func WithHierarchy(h *Hierarchy) Option {
	return func(c *config) {
		if h != nil {
			c.hierarchy = h
		}
	}
}

// WithHasher registers or replaces the hasher for algo.
func WithHasher(algo HashAlgo, h Hasher) Option {
	return func(c *config) { c.hashers[algo] = h }
}

// WithMasker registers or replaces the masker for mt.
func WithMasker(mt MaskType, m Masker) Option {
	return func(c *config) { c.maskers[mt] = m }
}

// Serializer turns values into depth-bounded Node trees.
//
// A Serializer is safe for concurrent use. Each call runs in its own Session,
// so identity strings and back-references never leak between calls.
type Serializer struct {
	intro *Introspector

	mu  sync.RWMutex
	cfg config
}

// New creates a Serializer with builtin hashers and maskers.
func New(opts ...Option) *Serializer {
	cfg := config{
		maxDepth:  DefaultMaxDepth,
		hierarchy: defaultHierarchy,
		hashers:   builtinHashers(),
		maskers:   builtinMaskers(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Serializer{
		intro: NewIntrospector(cfg.hierarchy, cfg.unexported),
		cfg:   cfg,
	}
	emitSerializerCreated(context.Background(), cfg.maxDepth)
	return s
}

// SetHasher registers a hasher for the given algorithm.
// Returns the serializer for chaining. Safe for concurrent use.
func (s *Serializer) SetHasher(algo HashAlgo, h Hasher) *Serializer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.hashers[algo] = h
	return s
}

// SetMasker registers a masker for the given type.
// Returns the serializer for chaining. Safe for concurrent use.
func (s *Serializer) SetMasker(mt MaskType, m Masker) *Serializer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.maskers[mt] = m
	return s
}

// MaxDepth returns the configured depth limit.
func (s *Serializer) MaxDepth() int {
	return s.cfg.maxDepth
}

// Introspector returns the field introspector shared by the serializer's sessions.
func (s *Serializer) Introspector() *Introspector {
	return s.intro
}

// NewSession starts a fresh identity scope using the serializer's configuration.
func (s *Serializer) NewSession() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	cfg.hashers = make(map[HashAlgo]Hasher, len(s.cfg.hashers))
	for k, v := range s.cfg.hashers {
		cfg.hashers[k] = v
	}
	cfg.maskers = make(map[MaskType]Masker, len(s.cfg.maskers))
	for k, v := range s.cfg.maskers {
		cfg.maskers[k] = v
	}
	return newSession(s.intro, &cfg)
}

// Serialize walks v and returns its node tree. The call fails as a whole when
// a field cannot be read or a sanitizer fails; no partial tree is returned.
func (s *Serializer) Serialize(ctx context.Context, v any) (*Node, error) {
	return s.serialize(ctx, s.NewSession(), v)
}

func (s *Serializer) serialize(ctx context.Context, sess *Session, v any) (*Node, error) {
	typeName := qualifiedName(reflect.TypeOf(v))
	start := time.Now()
	emitSerializeStart(ctx, sess.ID, typeName, sess.cfg.maxDepth)

	node, err := sess.Serialize(v)

	emitSerializeComplete(ctx, sess.ID, typeName, sess.nodes, sess.refs, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// Identify returns the identity string of v in a fresh session.
func (s *Serializer) Identify(v any) (string, error) {
	return s.NewSession().Identify(v)
}

// BuildShape returns the shape of v bounded by the configured depth.
func (s *Serializer) BuildShape(v any) (*Shape, error) {
	return s.NewSession().BuildShape(v, s.cfg.maxDepth)
}

var (
	defaultOnce       sync.Once
	defaultSerializer *Serializer
)

func std() *Serializer {
	defaultOnce.Do(func() { defaultSerializer = New() })
	return defaultSerializer
}

// Serialize walks v with the given depth limit using default settings. The
// default serializer's field plans are shared across calls.
func Serialize(v any, maxDepth int) (*Node, error) {
	s := std()
	sess := s.NewSession()
	sess.cfg.maxDepth = maxDepth
	return s.serialize(context.Background(), sess, v)
}

// Identify returns the identity string of v using default settings.
func Identify(v any) (string, error) {
	return std().Identify(v)
}

// BuildShape returns the shape of v bounded by maxDepth using default settings.
func BuildShape(v any, maxDepth int) (*Shape, error) {
	return std().NewSession().BuildShape(v, maxDepth)
}
