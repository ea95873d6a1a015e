// Package selection implements the process-wide selection and filter
// state as an explicit observable store. UI event handlers write
// through the setters; the match engine and viewport controller read
// snapshots. No persistence: the store lives and dies with the session.
package selection

import (
	"sync"

	"github.com/vanderheijden86/questwork/pkg/match"
)

// State is one consistent snapshot of the selection and filter fields.
type State struct {
	// TraderFilter restricts the view to one trader's tasks.
	TraderFilter string `json:"traderFilter,omitempty"`
	// SearchTerm filters by task or trader name. The search bar edits
	// either this or RewardSearchTerm at a time, but both are tracked.
	SearchTerm string `json:"searchTerm,omitempty"`
	// RewardSearchTerm filters by reward text.
	RewardSearchTerm string `json:"rewardSearchTerm,omitempty"`
	// SelectedTaskID is the task shown in the detail pane.
	SelectedTaskID string `json:"selectedTaskId,omitempty"`
	// FocusTaskID is a one-shot navigation command. Empty means no
	// request pending; the consumer clears it via TakeFocus.
	FocusTaskID string `json:"focusTaskId,omitempty"`
}

// Filters maps the filter fields onto the match engine's input.
func (s State) Filters() match.Filters {
	return match.Filters{
		Trader:     s.TraderFilter,
		Search:     s.SearchTerm,
		RewardTerm: s.RewardSearchTerm,
	}
}

type subscriber struct {
	id int
	fn func(State)
}

// Store holds the state and an observer list. All setters are
// idempotent: writing the current value notifies nobody.
type Store struct {
	mu     sync.Mutex
	state  State
	nextID int
	subs   []subscriber
}

// NewStore returns an empty store: no filters, nothing selected.
func NewStore() *Store {
	return &Store{}
}

// State returns a snapshot reflecting all writes so far.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers an observer called with a snapshot after every
// effective change, in subscription order. The returned cancel removes
// the observer; cancelling twice is harmless.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// mutate applies fn and notifies observers when it reports a change.
// Observers run outside the lock so they may call back into the store.
func (s *Store) mutate(fn func(*State) bool) {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	snapshot := s.state
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

// SetTraderFilter sets the trader filter; empty clears it.
func (s *Store) SetTraderFilter(name string) {
	s.mutate(func(st *State) bool {
		if st.TraderFilter == name {
			return false
		}
		st.TraderFilter = name
		return true
	})
}

// SetSearchTerm sets the name/trader search term.
func (s *Store) SetSearchTerm(term string) {
	s.mutate(func(st *State) bool {
		if st.SearchTerm == term {
			return false
		}
		st.SearchTerm = term
		return true
	})
}

// SetRewardSearchTerm sets the reward search term.
func (s *Store) SetRewardSearchTerm(term string) {
	s.mutate(func(st *State) bool {
		if st.RewardSearchTerm == term {
			return false
		}
		st.RewardSearchTerm = term
		return true
	})
}

// SelectTask sets the selected task; empty deselects.
func (s *Store) SelectTask(id string) {
	s.mutate(func(st *State) bool {
		if st.SelectedTaskID == id {
			return false
		}
		st.SelectedTaskID = id
		return true
	})
}

// RequestFocus files a one-shot navigation request. Requesting the id
// already pending is a no-op; requesting after TakeFocus fires again.
func (s *Store) RequestFocus(id string) {
	s.mutate(func(st *State) bool {
		if st.FocusTaskID == id {
			return false
		}
		st.FocusTaskID = id
		return true
	})
}

// SelectAndFocus updates the selection and files a focus request in a
// single notification. This is what clicking a list row does.
func (s *Store) SelectAndFocus(id string) {
	s.mutate(func(st *State) bool {
		changed := false
		if st.SelectedTaskID != id {
			st.SelectedTaskID = id
			changed = true
		}
		if st.FocusTaskID != id {
			st.FocusTaskID = id
			changed = true
		}
		return changed
	})
}

// TakeFocus returns the pending focus request and clears it. Consuming
// a command is not a state change observers react to, so no
// notification is sent; the emptiness of the field is the signal.
func (s *Store) TakeFocus() (id string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = s.state.FocusTaskID
	if id == "" {
		return "", false
	}
	s.state.FocusTaskID = ""
	return id, true
}

// ClearFilters resets the trader filter and both search terms in one
// notification. Selection and any pending focus request stay put:
// clearing filters is not deselecting.
func (s *Store) ClearFilters() {
	s.mutate(func(st *State) bool {
		if st.TraderFilter == "" && st.SearchTerm == "" && st.RewardSearchTerm == "" {
			return false
		}
		st.TraderFilter = ""
		st.SearchTerm = ""
		st.RewardSearchTerm = ""
		return true
	})
}
