package similar

import "fmt"

// Command is a typed user action that mutates the filter state.
type Command interface {
	Apply(f *FilterStore)
	String() string
}

// ToggleTag flips the selection of one tag chip.
type ToggleTag struct {
	Tag string
}

func (c ToggleTag) Apply(f *FilterStore) { f.ToggleTag(c.Tag) }
func (c ToggleTag) String() string { return fmt.Sprintf("toggle tag %q", c.Tag) }

// SetTempoTolerance moves the tempo tolerance slider.
type SetTempoTolerance struct {
	Percent int
}

func (c SetTempoTolerance) Apply(f *FilterStore) { f.SetTempoTolerance(c.Percent) }
func (c SetTempoTolerance) String() string { return fmt.Sprintf("tempo tolerance %d%%", c.Percent) }

// SetDisplayLimit changes the number of visible results.
type SetDisplayLimit struct {
	Limit int
}

func (c SetDisplayLimit) Apply(f *FilterStore) { f.SetDisplayLimit(c.Limit) }
func (c SetDisplayLimit) String() string { return fmt.Sprintf("display limit %d", c.Limit) }

// ClearTags deselects every tag chip.
type ClearTags struct{}

func (ClearTags) Apply(f *FilterStore) { f.ClearTags() }
func (ClearTags) String() string { return "clear tags" }
