package resumes

import "sync"

// Observer receives presentation updates from a running workflow.
type Observer interface {
	SetProcessing(processing bool)
	SetStatus(status string)
	// Prompt shows a blocking message, such as an alert.
	Prompt(message string)
}

// Tracker is an Observer that keeps the latest State and every status in order.
// OnChange, if set, is called with a snapshot after each update.
type Tracker struct {
	OnChange func(State)

	mu       sync.Mutex
	state    State
	statuses []string
}

func (t *Tracker) SetProcessing(processing bool) {
	t.update(func(s *State) { s.Processing = processing })
}

func (t *Tracker) SetStatus(status string) {
	t.mu.Lock()
	t.statuses = append(t.statuses, status)
	t.mu.Unlock()
	t.update(func(s *State) { s.Status = status })
}

func (t *Tracker) Prompt(message string) {
	t.update(func(s *State) { s.Prompt = message })
}

// State returns the current snapshot.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Statuses returns every status set so far.
func (t *Tracker) Statuses() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.statuses...)
}

func (t *Tracker) update(fn func(*State)) {
	t.mu.Lock()
	fn(&t.state)
	snap := t.state
	onChange := t.OnChange
	t.mu.Unlock()
	if onChange != nil {
		onChange(snap)
	}
}

// nopObserver discards updates.
type nopObserver struct{}

func (nopObserver) SetProcessing(bool) {}
func (nopObserver) SetStatus(string)   {}
func (nopObserver) Prompt(string)      {}

var _ Observer = (*Tracker)(nil)
