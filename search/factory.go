package search

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Built-in strategy names.
const (
	DirectImageStrategy = "direct-image"
	ArticleStrategy     = "article"
)

var (
	// ErrStrategyNotDefined is returned when a source names no strategy.
	ErrStrategyNotDefined = errors.New("search strategy is not defined")
	// ErrStrategyNotFound is returned for names no constructor is registered for.
	ErrStrategyNotFound = errors.New("search strategy does not exist")
)

// Constructor builds a strategy bound to a source.
type Constructor func(src Source) Strategy

// Factory resolves configured strategy names to strategies.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory returns a factory with the built-in strategies registered,
// including the class-style aliases older configurations use.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	f.Register(DirectImageStrategy, NewDirectImage)
	f.Register("DirectImageSearchStrategy", NewDirectImage)
	f.Register(ArticleStrategy, NewArticle)
	f.Register("ArticleSearchStrategy", NewArticle)
	return f
}

// Register adds or replaces the constructor for name.
func (f *Factory) Register(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.constructors == nil {
		f.constructors = make(map[string]Constructor)
	}
	f.constructors[name] = ctor
}

// Names lists the registered strategy names in sorted order.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForSource builds the strategy src is configured with.
func (f *Factory) ForSource(src Source) (Strategy, error) {
	name := src.SearchSettings().Strategy
	if name == "" {
		return nil, fmt.Errorf("%w for asset source %s", ErrStrategyNotDefined, src.Identifier())
	}

	f.mu.RLock()
	ctor, ok := f.constructors[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s for asset source %s", ErrStrategyNotFound, name, src.Identifier())
	}
	return ctor(src), nil
}
