package editor

import (
	"sort"
	"strconv"
)

// TrackedRangeStickiness controls how a decoration's range reacts to text
// typed exactly at its edges.
type TrackedRangeStickiness int

const (
	StickinessAlwaysGrowsWhenTypingAtEdges TrackedRangeStickiness = iota
	StickinessNeverGrowsWhenTypingAtEdges
	StickinessGrowsOnlyWhenTypingBefore
	StickinessGrowsOnlyWhenTypingAfter
)

func (s TrackedRangeStickiness) growsBefore() bool {
	return s == StickinessAlwaysGrowsWhenTypingAtEdges || s == StickinessGrowsOnlyWhenTypingBefore
}

func (s TrackedRangeStickiness) growsAfter() bool {
	return s == StickinessAlwaysGrowsWhenTypingAtEdges || s == StickinessGrowsOnlyWhenTypingAfter
}

// DecorationOptions describes how a decoration renders and tracks edits.
type DecorationOptions struct {
	InlineClassName string                 `json:"inlineClassName,omitempty"`
	IsWholeLine     bool                   `json:"isWholeLine,omitempty"`
	Stickiness      TrackedRangeStickiness `json:"stickiness"`
}

// DecorationSpec is a decoration to be added.
type DecorationSpec struct {
	Range   Range             `json:"range"`
	Options DecorationOptions `json:"options"`
}

// Decoration is a tracked decoration owned by the model.
type Decoration struct {
	ID      string            `json:"id"`
	Range   Range             `json:"range"`
	Options DecorationOptions `json:"options"`
}

type decorationSet struct {
	nextID int
	items  map[string]*Decoration
}

// DeltaDecorations removes the decorations named by oldIDs and adds specs,
// returning the ids of the added decorations in spec order.
func (m *Model) DeltaDecorations(oldIDs []string, specs []DecorationSpec) []string {
	if m.decos.items == nil {
		m.decos.items = make(map[string]*Decoration)
	}
	for _, id := range oldIDs {
		delete(m.decos.items, id)
	}
	ids := make([]string, 0, len(specs))
	for _, spec := range specs {
		m.decos.nextID++
		id := strconv.Itoa(m.decos.nextID)
		r := m.clampRange(spec.Range).Normalize()
		m.decos.items[id] = &Decoration{ID: id, Range: r, Options: spec.Options}
		ids = append(ids, id)
	}
	return ids
}

// AllDecorations returns every tracked decoration in document order.
func (m *Model) AllDecorations() []Decoration {
	out := make([]Decoration, 0, len(m.decos.items))
	for _, d := range m.decos.items {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := ComparePositions(out[i].Range.Start(), out[j].Range.Start()); c != 0 {
			return c < 0
		}
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out
}

type trackedOffsets struct {
	deco       *Decoration
	start, end int
}

// captureDecorations records decoration offsets against the current lines.
func (m *Model) captureDecorations() []trackedOffsets {
	out := make([]trackedOffsets, 0, len(m.decos.items))
	for _, d := range m.decos.items {
		out = append(out, trackedOffsets{
			deco:  d,
			start: m.offsetAt(d.Range.Start()),
			end:   m.offsetAt(d.Range.End()),
		})
	}
	return out
}

// shiftDecorations moves captured decorations across one replacement of
// [delStart, delEnd) by insLen runes. It must run after the lines changed.
func (m *Model) shiftDecorations(tracked []trackedOffsets, delStart, delEnd, insLen int, force bool) {
	for _, t := range tracked {
		st := t.deco.Options.Stickiness
		start := shiftOffset(t.start, delStart, delEnd, insLen, true, st, force)
		end := shiftOffset(t.end, delStart, delEnd, insLen, false, st, force)
		if end < start {
			end = start
		}
		t.deco.Range = NewRange(m.positionAt(start), m.positionAt(end))
	}
}

func shiftOffset(off, delStart, delEnd, insLen int, isStart bool, st TrackedRangeStickiness, force bool) int {
	switch {
	case off < delStart:
		return off
	case off > delEnd:
		return off + insLen - (delEnd - delStart)
	case off == delEnd && delEnd > delStart:
		return delStart + insLen
	}
	// The offset sits at the insertion point (or inside deleted text, which
	// collapses onto it).
	if force {
		return delStart + insLen
	}
	if isStart {
		if st.growsBefore() {
			return delStart
		}
		return delStart + insLen
	}
	if st.growsAfter() {
		return delStart + insLen
	}
	return delStart
}
