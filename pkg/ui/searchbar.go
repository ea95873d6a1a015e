package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/questwork/pkg/selection"
	"github.com/vanderheijden86/questwork/pkg/watcher"
)

// SearchMode selects which selection-state field the bar edits. Name search
// and reward search are independent filters; the bar edits one at a time
// and leaves the other applied.
type SearchMode int

const (
	SearchByName SearchMode = iota
	SearchByReward
)

// SearchBar is the one-line filter input. Keystrokes reach the selection
// store through a debouncer so annotation work runs once per pause, not
// once per key; enter bypasses the debounce and commits immediately.
type SearchBar struct {
	input    textinput.Model
	store    *selection.Store
	debounce *watcher.Debouncer
	theme    Theme
	mode     SearchMode
}

func NewSearchBar(store *selection.Store, debounce time.Duration, theme Theme) SearchBar {
	ti := textinput.New()
	ti.Placeholder = "type to filter"
	ti.CharLimit = 120
	ti.TextStyle = theme.BaseText
	ti.PlaceholderStyle = theme.MutedText
	s := SearchBar{
		input:    ti,
		store:    store,
		debounce: watcher.NewDebouncer(debounce),
		theme:    theme,
	}
	s.syncPrompt()
	return s
}

func (s *SearchBar) syncPrompt() {
	if s.mode == SearchByReward {
		s.input.Prompt = "reward: "
		s.input.PromptStyle = s.theme.FlashBold
		s.input.Placeholder = "search rewards"
	} else {
		s.input.Prompt = "search: "
		s.input.PromptStyle = s.theme.PrimaryBold
		s.input.Placeholder = "search tasks"
	}
}

// Focus opens the bar in the given mode, seeded with the term currently
// applied so editing resumes instead of restarting.
func (s *SearchBar) Focus(mode SearchMode) tea.Cmd {
	s.mode = mode
	s.syncPrompt()
	st := s.store.State()
	if mode == SearchByReward {
		s.input.SetValue(st.RewardSearchTerm)
	} else {
		s.input.SetValue(st.SearchTerm)
	}
	s.input.CursorEnd()
	return s.input.Focus()
}

// Blur closes the bar, dropping any pending debounced edit. Whatever was
// last committed stays applied.
func (s *SearchBar) Blur() {
	s.debounce.Cancel()
	s.input.Blur()
}

func (s SearchBar) Focused() bool { return s.input.Focused() }

func (s SearchBar) Mode() SearchMode { return s.mode }

func (s SearchBar) Value() string { return s.input.Value() }

func (s *SearchBar) SetWidth(width int) {
	w := width - len(s.input.Prompt) - 2
	if w < 10 {
		w = 10
	}
	s.input.Width = w
}

// Update handles a key while the bar is focused. The bool reports whether
// the key was consumed; an unfocused bar consumes nothing.
func (s *SearchBar) Update(msg tea.KeyMsg) (tea.Cmd, bool) {
	if !s.input.Focused() {
		return nil, false
	}
	switch msg.String() {
	case "ctrl+c":
		// Quit stays global even while typing.
		return nil, false
	case "enter":
		// Commit now: the pending debounced apply is cancelled so it
		// cannot land after this explicit one.
		s.debounce.Cancel()
		s.apply(s.input.Value())
		s.input.Blur()
		return nil, true
	case "esc":
		s.debounce.Cancel()
		s.input.SetValue("")
		s.apply("")
		s.input.Blur()
		return nil, true
	case "tab":
		s.debounce.Cancel()
		if s.mode == SearchByReward {
			s.mode = SearchByName
		} else {
			s.mode = SearchByReward
		}
		s.syncPrompt()
		st := s.store.State()
		if s.mode == SearchByReward {
			s.input.SetValue(st.RewardSearchTerm)
		} else {
			s.input.SetValue(st.SearchTerm)
		}
		s.input.CursorEnd()
		return nil, true
	}

	prev := s.input.Value()
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	if v := s.input.Value(); v != prev {
		mode := s.mode
		store := s.store
		s.debounce.Trigger(func() {
			if mode == SearchByReward {
				store.SetRewardSearchTerm(v)
			} else {
				store.SetSearchTerm(v)
			}
		})
	}
	return cmd, true
}

func (s *SearchBar) apply(term string) {
	if s.mode == SearchByReward {
		s.store.SetRewardSearchTerm(term)
	} else {
		s.store.SetSearchTerm(term)
	}
}

func (s SearchBar) View() string {
	return s.input.View()
}
