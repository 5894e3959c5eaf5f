package wellmap

import (
	"fmt"
	"sync"

	"wellmap/internal/acquisition"
)

// Session caches the well inference for one file. The result is computed on
// first use and kept until Reopen.
type Session struct {
	open     acquisition.Opener
	resolver *Resolver

	mu     sync.Mutex
	result *Result
}

// NewSession creates a session that reads metadata through open. A nil
// resolver uses the built-in catalog.
func NewSession(open acquisition.Opener, resolver *Resolver) *Session {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	return &Session{open: open, resolver: resolver}
}

// Result returns the cached inference, computing it if needed.
func (s *Session) Result() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return s.result, nil
	}
	md, err := s.open()
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	n, err := md.SceneCount()
	if err != nil {
		return nil, fmt.Errorf("scene count: %w", err)
	}
	res, err := s.resolver.Analyze(md, n)
	if err != nil {
		return nil, err
	}
	s.result = res
	return res, nil
}

// Mapping returns the scene to well mapping.
func (s *Session) Mapping() (Mapping, error) {
	res, err := s.Result()
	if err != nil {
		return nil, err
	}
	return res.Mapping, nil
}

// Well returns the well of one scene.
func (s *Session) Well(scene int) (WellPosition, error) {
	m, err := s.Mapping()
	if err != nil {
		return WellPosition{}, err
	}
	w, ok := m[scene]
	if !ok {
		return WellPosition{}, fmt.Errorf("%w: %d", acquisition.ErrSceneOutOfRange, scene)
	}
	return w, nil
}

// Row returns the row label of a scene's well.
func (s *Session) Row(scene int) (string, error) {
	w, err := s.Well(scene)
	return w.Row, err
}

// Column returns the column label of a scene's well.
func (s *Session) Column(scene int) (string, error) {
	w, err := s.Well(scene)
	return w.Col, err
}

// Reopen drops the cached result; the next call re-reads the metadata.
func (s *Session) Reopen() {
	s.mu.Lock()
	s.result = nil
	s.mu.Unlock()
}
