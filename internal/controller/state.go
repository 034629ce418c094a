package controller

import "sync"

// State is the key-value bag a controller checkpoints transient input
// into (pending search text, a half-typed name). Rebuilding a
// controller around the same bag restores what the user had in
// flight. It never holds task records.
type State struct {
	mu sync.Mutex
	m  map[string]string
}

func NewState() *State {
	return &State{m: make(map[string]string)}
}

func (s *State) GetString(key, fallback string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.m[key]; ok {
		return v
	}
	return fallback
}

func (s *State) SetString(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *State) GetBool(key string, fallback bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.m[key]; ok {
		return v == "true"
	}
	return fallback
}

func (s *State) SetBool(key string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value {
		s.m[key] = "true"
	} else {
		s.m[key] = "false"
	}
}
