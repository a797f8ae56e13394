// Package catalog holds the growing, ordered collection of fully loaded
// records and the filtered views derived from it.
package catalog

import "slices"

// Stat is one base stat of a record, in API order.
type Stat struct {
	Name      string `json:"name"`
	BaseValue int    `json:"base_value"`
}

// Type is one type label of a record. Slot 1 is primary, slot 2 secondary.
type Type struct {
	Slot int    `json:"slot"`
	Name string `json:"name"`
}

// UIState is per-record transient state, mutated only by user toggles.
type UIState struct {
	DetailsExpanded bool `json:"details_expanded"`
}

// Record is a fully loaded catalog entry.
type Record struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Weight int     `json:"weight"`
	Stats  []Stat  `json:"stats"`
	Types  []Type  `json:"types"`
	Sprite string  `json:"sprite,omitempty"`
	UI     UIState `json:"ui"`
}

// Clone returns a copy of r that shares no slices with it.
func (r Record) Clone() Record {
	r.Stats = slices.Clone(r.Stats)
	r.Types = slices.Clone(r.Types)
	return r
}
