package paste

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// Errors returned by pattern registration.
var (
	ErrDuplicatePattern = errors.New("pattern already registered")
	ErrPatternNotFound  = errors.New("pattern not found")
	ErrInvalidPattern   = errors.New("invalid pattern")
)

// Match is the successful result of a matcher.
type Match struct {
	// Text is the matched portion of the pasted text.
	Text string

	// Groups holds capture groups; Groups[0] is the full match for
	// regexp-based matchers.
	Groups []string
}

// MatcherFunc tests pasted text. It returns the match and true on success.
type MatcherFunc func(text string) (Match, bool)

// ProducerFunc synthesizes the block payload for a match. Returning a nil
// payload with a nil error means "no match after all" and lets scanning
// continue with the next pattern.
type ProducerFunc func(ctx context.Context, text string, m Match) (map[string]any, error)

// Pattern classifies pasted text into a target block kind.
type Pattern struct {
	// Name uniquely identifies the pattern for replacement and removal.
	Name string

	// Kind is the target block kind.
	Kind string

	// Priority orders evaluation; higher wins. Default is 0.
	Priority int

	Match   MatcherFunc
	Produce ProducerFunc
}

// RegexpMatcher builds a matcher from a compiled regexp. The pattern is
// applied to the full pasted text.
func RegexpMatcher(re *regexp.Regexp) MatcherFunc {
	return func(text string) (Match, bool) {
		groups := re.FindStringSubmatch(text)
		if groups == nil {
			return Match{}, false
		}
		return Match{Text: groups[0], Groups: groups}, true
	}
}

// registered pairs a pattern with its registration sequence number, making
// the registration-order tie-break explicit.
type registered struct {
	Pattern
	seq uint64
}

// Registry holds paste patterns, keyed by name, owned by one engine instance.
type Registry struct {
	mu       sync.Mutex
	patterns map[string]registered
	nextSeq  uint64
}

// NewRegistry creates an empty pattern registry.
func NewRegistry() *Registry {
	return &Registry{patterns: make(map[string]registered)}
}

// Register adds a pattern. Re-registering an existing name fails; callers
// that want to override a built-in pattern must Replace or Remove it first,
// or register under a strictly higher priority.
func (r *Registry) Register(p Pattern) error {
	if err := validate(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patterns[p.Name]; exists {
		return fmt.Errorf("pattern %q: %w", p.Name, ErrDuplicatePattern)
	}
	r.nextSeq++
	r.patterns[p.Name] = registered{Pattern: p, seq: r.nextSeq}
	return nil
}

// Replace swaps the pattern with the same name. The replacement takes a
// fresh sequence number, as if removed and re-registered.
func (r *Registry) Replace(p Pattern) error {
	if err := validate(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patterns[p.Name]; !exists {
		return fmt.Errorf("pattern %q: %w", p.Name, ErrPatternNotFound)
	}
	r.nextSeq++
	r.patterns[p.Name] = registered{Pattern: p, seq: r.nextSeq}
	return nil
}

// Remove deletes a pattern by name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.patterns[name]; !exists {
		return fmt.Errorf("pattern %q: %w", name, ErrPatternNotFound)
	}
	delete(r.patterns, name)
	return nil
}

// Get returns a pattern by name.
func (r *Registry) Get(name string) (Pattern, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patterns[name]
	return p.Pattern, ok
}

// Count returns the number of registered patterns.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.patterns)
}

// ordered returns patterns sorted by priority descending, registration
// order ascending.
func (r *Registry) ordered() []registered {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]registered, 0, len(r.patterns))
	for _, p := range r.patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].seq < out[j].seq
	})
	return out
}

func validate(p Pattern) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("empty name: %w", ErrInvalidPattern)
	case p.Kind == "":
		return fmt.Errorf("pattern %q: empty kind: %w", p.Name, ErrInvalidPattern)
	case p.Match == nil:
		return fmt.Errorf("pattern %q: nil matcher: %w", p.Name, ErrInvalidPattern)
	case p.Produce == nil:
		return fmt.Errorf("pattern %q: nil producer: %w", p.Name, ErrInvalidPattern)
	}
	return nil
}
