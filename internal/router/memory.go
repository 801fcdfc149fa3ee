package router

import "sync"

// Memory is an in-process history of paths.
type Memory struct {
	mu       sync.Mutex
	history  []string
	onChange ChangeFunc
}

func NewMemory(onChange ChangeFunc) *Memory {
	return &Memory{onChange: onChange}
}

// Get returns the newest history entry.
func (m *Memory) Get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return ""
	}
	return m.history[len(m.history)-1]
}

// Set pushes path onto the history unless it already is the newest entry.
func (m *Memory) Set(path string, opts SetOptions) {
	m.mu.Lock()
	if n := len(m.history); n == 0 || m.history[n-1] != path {
		m.history = append(m.history, path)
	}
	m.mu.Unlock()

	if !opts.Silent {
		notify(m.onChange, path)
	}
}

// Navigate simulates an external change to path.
func (m *Memory) Navigate(path string) {
	m.Set(path, SetOptions{})
}

// Back drops the newest entry and reports the previous one. It returns false
// when there is nothing to go back to.
func (m *Memory) Back() bool {
	m.mu.Lock()
	if len(m.history) < 2 {
		m.mu.Unlock()
		return false
	}
	m.history = m.history[:len(m.history)-1]
	path := m.history[len(m.history)-1]
	m.mu.Unlock()

	notify(m.onChange, path)
	return true
}

// History returns a copy of all entries, oldest first.
func (m *Memory) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history...)
}
