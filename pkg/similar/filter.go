package similar

import (
	"sort"
)

// FilterStore holds the mutable filter settings of one search session.
// It accepts every input; the zero value behaves like a store that was
// Reset with the default display limit.
type FilterStore struct {
	tolerance int
	selected  map[string]struct{}
	limit     int
	ready     bool
}

// NewFilterStore returns a store reset to the defaults for displayLimit.
func NewFilterStore(displayLimit int) *FilterStore {
	f := &FilterStore{}
	f.Reset(displayLimit)
	return f
}

// Reset clears the selected tags, turns tempo filtering off and sets the
// display limit to the size the user last asked for.
func (f *FilterStore) Reset(displayLimit int) {
	def := DefaultFilterState(displayLimit)
	f.tolerance = def.TempoTolerance
	f.limit = def.DisplayLimit
	f.selected = make(map[string]struct{})
	f.ready = true
}

func (f *FilterStore) init() {
	if !f.ready {
		f.Reset(0)
	}
}

// ToggleTag selects tag if it is not selected yet, otherwise deselects it.
func (f *FilterStore) ToggleTag(tag string) {
	f.init()
	if _, ok := f.selected[tag]; ok {
		delete(f.selected, tag)
		return
	}
	f.selected[tag] = struct{}{}
}

// ClearTags deselects every tag.
func (f *FilterStore) ClearTags() {
	f.init()
	f.selected = make(map[string]struct{})
}

// SetTempoTolerance stores percent clamped to [0,100].
func (f *FilterStore) SetTempoTolerance(percent int) {
	f.init()
	f.tolerance = clampTolerance(percent)
}

// SetDisplayLimit changes how many ranked tracks are surfaced.
// Non-positive values are ignored.
func (f *FilterStore) SetDisplayLimit(limit int) {
	f.init()
	if limit > 0 {
		f.limit = limit
	}
}

// IsSelected reports whether tag is currently selected.
func (f *FilterStore) IsSelected(tag string) bool {
	f.init()
	_, ok := f.selected[tag]
	return ok
}

// State returns a snapshot that later mutations do not affect.
func (f *FilterStore) State() FilterState {
	f.init()
	tags := make([]string, 0, len(f.selected))
	for t := range f.selected {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return FilterState{
		TempoTolerance: f.tolerance,
		SelectedTags:   tags,
		DisplayLimit:   f.limit,
	}
}
