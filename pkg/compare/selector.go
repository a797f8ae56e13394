// Package compare implements the two-slot comparison selection, gated by
// a comparison mode toggle.
package compare

import (
	"sync"

	"github.com/Sternrassler/dex-browser/pkg/catalog"
	"github.com/Sternrassler/dex-browser/pkg/logging"
	"github.com/rs/zerolog"
)

// State is the observable state of a Selector.
type State string

const (
	// StateDisabled means comparison mode is off and selection is ignored.
	StateDisabled State = "disabled"

	// StateEmpty means comparison mode is on and no slot is occupied.
	StateEmpty State = "empty"

	// StateOneSelected means exactly one slot is occupied.
	StateOneSelected State = "one_selected"

	// StateTwoSelected means both slots are occupied and the pair is shown.
	StateTwoSelected State = "two_selected"
)

// Slots is a view of the two selection slots. A nil slot is empty.
type Slots struct {
	A *catalog.Record
	B *catalog.Record
}

// Selector is the comparison selection state machine. Records are
// identified by id, and a record occupies at most one slot.
type Selector struct {
	mu       sync.Mutex
	enabled  bool
	slotA    *catalog.Record
	slotB    *catalog.Record
	showPair bool
	logger   zerolog.Logger
}

// NewSelector creates a selector in the disabled state.
func NewSelector() *Selector {
	return &Selector{logger: logging.NewLogger("compare")}
}

// SetModeEnabled switches comparison mode. Disabling always clears both
// slots and hides the pair. Enabling with both slots already filled shows
// the pair again.
func (s *Selector) SetModeEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = enabled
	if !enabled {
		s.slotA = nil
		s.slotB = nil
		s.showPair = false
		s.logger.Debug().Msg("Comparison mode disabled, selection cleared")
		return
	}

	if s.slotA != nil && s.slotB != nil {
		s.showPair = true
	}
	s.logger.Debug().Str("state", string(s.stateLocked())).Msg("Comparison mode enabled")
}

// Enabled reports whether comparison mode is on.
func (s *Selector) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Select toggles rec into or out of the selection. It returns true when the
// selection changed. Selecting while disabled, or selecting a third record
// while both slots are taken, changes nothing.
func (s *Selector) Select(rec catalog.Record) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		return false
	}

	switch {
	case s.slotA != nil && s.slotA.ID == rec.ID:
		s.slotA = nil
	case s.slotB != nil && s.slotB.ID == rec.ID:
		s.slotB = nil
	case s.slotA == nil:
		s.slotA = &rec
	case s.slotB == nil:
		s.slotB = &rec
	default:
		s.logger.Debug().Int("id", rec.ID).Msg("Selection full, ignoring select")
		return false
	}

	// A pair needs exactly two occupants.
	s.showPair = s.slotA != nil && s.slotB != nil

	s.logger.Debug().
		Int("id", rec.ID).
		Str("state", string(s.stateLocked())).
		Msg("Selection changed")
	return true
}

// Slots returns copies of the current slot occupants.
func (s *Selector) Slots() Slots {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Slots{A: cloneRecord(s.slotA), B: cloneRecord(s.slotB)}
}

// Pair returns the comparison pair while it is shown.
func (s *Selector) Pair() (a, b catalog.Record, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.showPair {
		return catalog.Record{}, catalog.Record{}, false
	}
	return *s.slotA, *s.slotB, true
}

// ShowComparison reports whether the presentation layer should display the
// comparison pair.
func (s *Selector) ShowComparison() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showPair
}

// IsSelected reports whether the record with id occupies a slot.
func (s *Selector) IsSelected(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.slotA != nil && s.slotA.ID == id) || (s.slotB != nil && s.slotB.ID == id)
}

// State returns the current state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Selector) stateLocked() State {
	switch {
	case !s.enabled:
		return StateDisabled
	case s.slotA != nil && s.slotB != nil:
		return StateTwoSelected
	case s.slotA != nil || s.slotB != nil:
		return StateOneSelected
	default:
		return StateEmpty
	}
}

func cloneRecord(r *catalog.Record) *catalog.Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
