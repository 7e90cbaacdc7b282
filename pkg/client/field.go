package client

import (
	"context"
	"sync"

	"contentd/pkg/dropdown"
)

// Phase is the lifecycle of the latest request of a state holder.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseCancelled
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseCancelled:
		return "cancelled"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// FieldState is what a single dropdown control renders.
type FieldState struct {
	Screen      string
	Field       string
	Language    string
	Options     []dropdown.Option
	Label       string
	Placeholder string
	Loading     bool
	Err         error
	Phase       Phase
}

// FieldDropdown tracks one field. Every Set supersedes the request in flight;
// a superseded result is dropped and the last good options stay visible
// until the new request settles.
type FieldDropdown struct {
	client   *Client
	parent   context.Context
	onChange func(FieldState)

	mu     sync.Mutex
	state  FieldState
	token  *CancelToken
	closed bool
	wg     sync.WaitGroup
}

// NewFieldDropdown creates an idle tracker. onChange, if set, is called with
// every new state from the goroutine that produced it.
func (c *Client) NewFieldDropdown(ctx context.Context, onChange func(FieldState)) *FieldDropdown {
	return &FieldDropdown{
		client:   c,
		parent:   ctx,
		onChange: onChange,
		state:    FieldState{Options: []dropdown.Option{}},
	}
}

// Set points the tracker at (screen, field, language) and starts a read.
// A read still loading is cancelled first, and a cancelled tracker passes
// through idle before loading again.
func (f *FieldDropdown) Set(screen, field, language string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	var transitions []FieldState
	if cancelled, ok := f.cancelLocked(); ok {
		transitions = append(transitions, cancelled)
	}
	f.token = NewCancelToken(f.parent)
	tok := f.token

	f.state.Screen, f.state.Field, f.state.Language = screen, field, language
	f.state.Err = nil
	if f.state.Phase == PhaseCancelled {
		f.state.Phase = PhaseIdle
		transitions = append(transitions, f.state)
	}
	f.state.Loading = true
	f.state.Phase = PhaseLoading
	transitions = append(transitions, f.state)
	f.wg.Add(1)
	f.mu.Unlock()

	for _, st := range transitions {
		f.notify(st)
	}
	go f.run(tok, screen, field, language)
}

// cancelLocked aborts the read in flight. It reports the cancelled state when
// a read was actually loading.
func (f *FieldDropdown) cancelLocked() (FieldState, bool) {
	f.token.Cancel()
	if f.state.Phase != PhaseLoading {
		return FieldState{}, false
	}
	f.state.Phase = PhaseCancelled
	f.state.Loading = false
	return f.state, true
}

func (f *FieldDropdown) run(tok *CancelToken, screen, field, language string) {
	defer f.wg.Done()
	resp, err := f.client.FetchScreen(tok.Context(), screen, language)

	f.mu.Lock()
	if tok.Cancelled() || f.token != tok {
		f.mu.Unlock()
		return
	}
	switch {
	case err == nil:
		props := f.client.Lookup(resp, screen, field)
		f.state.Options = props.Options
		f.state.Label = props.Label
		f.state.Placeholder = props.Placeholder
		f.state.Err = nil
		f.state.Phase = PhaseSuccess
	case IsCancelled(err):
		f.state.Phase = PhaseCancelled
	default:
		f.state.Options = []dropdown.Option{}
		f.state.Label = ""
		f.state.Placeholder = ""
		f.state.Err = err
		f.state.Phase = PhaseFailed
	}
	f.state.Loading = false
	snapshot := f.state
	f.mu.Unlock()

	f.notify(snapshot)
}

// State returns the current state.
func (f *FieldDropdown) State() FieldState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Wait blocks until every started read has settled.
func (f *FieldDropdown) Wait() {
	f.wg.Wait()
}

// Cancel aborts the read in flight and keeps the last good options. The
// next Set starts over from idle.
func (f *FieldDropdown) Cancel() {
	f.mu.Lock()
	st, ok := f.cancelLocked()
	f.mu.Unlock()
	if ok {
		f.notify(st)
	}
}

// Close cancels the read in flight and ignores any later Set.
func (f *FieldDropdown) Close() {
	f.mu.Lock()
	f.closed = true
	st, ok := f.cancelLocked()
	f.mu.Unlock()
	if ok {
		f.notify(st)
	}
}

func (f *FieldDropdown) notify(s FieldState) {
	if f.onChange != nil {
		f.onChange(s)
	}
}
