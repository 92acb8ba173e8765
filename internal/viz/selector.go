package viz

import (
	"strings"

	apperrors "github.com/KaramelBytes/quickeda-cli/internal/errors"
)

// Backend identifiers.
const (
	Static      = "static"
	Interactive = "interactive"
	Default     = Static
)

// Selector holds the active backend of one analysis session. It replaces a
// process-wide slot: independent sessions use independent Selectors.
// A Selector is not safe for concurrent use.
type Selector struct {
	backends map[string]Backend
	current  string
}

// NewSelector returns a selector with both backends registered and the
// static backend active.
func NewSelector() *Selector {
	s := &Selector{backends: map[string]Backend{}}
	for _, b := range []Backend{NewStaticBackend(), NewInteractiveBackend()} {
		s.backends[b.Name()] = b
	}
	s.current = Default
	return s
}

// Names lists the recognized backend identifiers.
func (s *Selector) Names() []string {
	return []string{Static, Interactive}
}

// SetBackend switches the active backend. An unknown name fails and leaves
// the current selection unchanged. Plots already rendered are not touched.
func (s *Selector) SetBackend(name string) error {
	key := normalize(name)
	if _, ok := s.backends[key]; !ok {
		return apperrors.UnknownBackend(name, s.Names())
	}
	s.current = key
	return nil
}

// Current resolves the active backend.
func (s *Selector) Current() Backend { return s.backends[s.current] }

// CurrentName returns the identifier of the active backend.
func (s *Selector) CurrentName() string { return s.current }

// Resolve returns the named backend for a single call without changing the
// selection. An empty name resolves to the active backend.
func (s *Selector) Resolve(name string) (Backend, error) {
	if strings.TrimSpace(name) == "" {
		return s.Current(), nil
	}
	b, ok := s.backends[normalize(name)]
	if !ok {
		return nil, apperrors.UnknownBackend(name, s.Names())
	}
	return b, nil
}

func normalize(name string) string { return strings.ToLower(strings.TrimSpace(name)) }
