package client

import (
	"context"
	"sync"

	"contentd/pkg/dropdown"
)

// ScreenState is the bulk view of one (screen, language).
type ScreenState struct {
	Screen   string
	Language string
	Data     *dropdown.Response
	Loading  bool
	Err      error
	Phase    Phase
}

// ScreenDropdowns fetches a whole screen once and serves every field from it.
type ScreenDropdowns struct {
	client *Client
	parent context.Context

	mu     sync.Mutex
	state  ScreenState
	token  *CancelToken
	closed bool
	wg     sync.WaitGroup
}

// NewScreenDropdowns creates an idle bulk tracker.
func (c *Client) NewScreenDropdowns(ctx context.Context) *ScreenDropdowns {
	return &ScreenDropdowns{client: c, parent: ctx}
}

// Load points the tracker at (screen, language) and starts a read,
// superseding any read in flight.
func (s *ScreenDropdowns) Load(screen, language string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cancelLocked()
	tok := NewCancelToken(s.parent)
	s.token = tok
	s.state.Screen, s.state.Language = screen, language
	s.state.Loading = true
	s.state.Err = nil
	s.state.Phase = PhaseLoading
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(tok, screen, language)
}

func (s *ScreenDropdowns) run(tok *CancelToken, screen, language string) {
	defer s.wg.Done()
	resp, err := s.client.FetchScreen(tok.Context(), screen, language)

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.Cancelled() || s.token != tok {
		return
	}
	switch {
	case err == nil:
		s.state.Data = resp
		s.state.Phase = PhaseSuccess
	case IsCancelled(err):
		s.state.Phase = PhaseCancelled
	default:
		s.state.Data = nil
		s.state.Err = err
		s.state.Phase = PhaseFailed
	}
	s.state.Loading = false
}

// Refresh drops the cached payload and reads it again.
func (s *ScreenDropdowns) Refresh() {
	s.mu.Lock()
	screen, language := s.state.Screen, s.state.Language
	s.mu.Unlock()
	if screen == "" {
		return
	}
	s.client.Forget(screen, language)
	s.Load(screen, language)
}

// ClearCache drops every payload cached by the client.
func (s *ScreenDropdowns) ClearCache() {
	s.client.ClearCache()
}

// State returns the current state.
func (s *ScreenDropdowns) State() ScreenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FieldProps resolves field against the fetched payload without a network read.
func (s *ScreenDropdowns) FieldProps(field string) dropdown.FieldProps {
	s.mu.Lock()
	data, screen := s.state.Data, s.state.Screen
	s.mu.Unlock()
	return s.client.Lookup(data, screen, field)
}

// Wait blocks until every started read has settled.
func (s *ScreenDropdowns) Wait() {
	s.wg.Wait()
}

// Cancel aborts the read in flight and keeps the last fetched payload.
func (s *ScreenDropdowns) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// Close cancels the read in flight and ignores any later Load.
func (s *ScreenDropdowns) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cancelLocked()
}

func (s *ScreenDropdowns) cancelLocked() {
	s.token.Cancel()
	if s.state.Phase == PhaseLoading {
		s.state.Phase = PhaseCancelled
		s.state.Loading = false
	}
}
