package selection

import (
	"encoding/json"
	"slices"
)

// ChosenIDs is the host-side record of which products and variations are
// selected. In singular mode it holds at most one id.
type ChosenIDs struct {
	Singular bool
	ids      []int64
}

func NewChosenIDs(singular bool, value ...int64) ChosenIDs {
	c := ChosenIDs{Singular: singular}
	for _, id := range value {
		c.Select(id)
	}
	return c
}

func (c ChosenIDs) Contains(id int64) bool {
	return slices.Contains(c.ids, id)
}

func (c ChosenIDs) Values() []int64 {
	return slices.Clone(c.ids)
}

// Select adds id (multi mode) or replaces the current value (singular mode).
func (c *ChosenIDs) Select(id int64) {
	if c.Singular {
		c.ids = []int64{id}
		return
	}
	if !c.Contains(id) {
		c.ids = append(c.ids, id)
	}
}

// Toggle flips membership of id in multi mode; singular mode assigns.
func (c *ChosenIDs) Toggle(id int64) {
	if c.Singular {
		c.ids = []int64{id}
		return
	}
	if i := slices.Index(c.ids, id); i >= 0 {
		c.ids = slices.Delete(c.ids, i, i+1)
		return
	}
	c.ids = append(c.ids, id)
}

// Apply folds one engine event into the chosen ids.
func (c *ChosenIDs) Apply(ev Event) {
	switch ev.Kind {
	case EventToggle:
		c.Toggle(ev.ID)
	default:
		c.Select(ev.ID)
	}
}

// MarshalJSON renders a number (or null) in singular mode and an array otherwise.
func (c ChosenIDs) MarshalJSON() ([]byte, error) {
	if c.Singular {
		if len(c.ids) == 0 {
			return []byte("null"), nil
		}
		return json.Marshal(c.ids[0])
	}
	if c.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.ids)
}
