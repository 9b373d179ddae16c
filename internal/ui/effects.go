package ui

import (
	"sort"
	"strings"
)

const (
	// NavbarScrollThreshold is how far the page must scroll before the
	// navbar switches to its scrolled style.
	NavbarScrollThreshold = 50

	// RevealOffset is how far above the viewport bottom a section's top
	// edge must be before it is revealed.
	RevealOffset = 100

	// cellHeightPx converts terminal rows into the pixel units above.
	cellHeightPx = 16
)

// NavbarScrolled reports whether a page scrolled by scrollY pixels shows the
// scrolled navbar.
func NavbarScrolled(scrollY int) bool {
	return scrollY > NavbarScrollThreshold
}

// Revealed reports whether an element whose top edge sits at elementTop
// (relative to the viewport top) is revealed in a viewport of the given
// height.
func Revealed(elementTop, viewportHeight int) bool {
	return elementTop < viewportHeight-RevealOffset
}

func rowsToPx(rows int) int {
	return rows * cellHeightPx
}

// Accordion tracks which items are expanded. Items toggle independently.
type Accordion struct {
	open map[string]bool
}

// NewAccordion creates an accordion with the given items expanded.
func NewAccordion(expanded []string) *Accordion {
	a := &Accordion{open: make(map[string]bool, len(expanded))}
	for _, id := range expanded {
		a.open[id] = true
	}
	return a
}

// Toggle flips id and returns whether it is now expanded.
func (a *Accordion) Toggle(id string) bool {
	if a.open[id] {
		delete(a.open, id)
		return false
	}
	a.open[id] = true
	return true
}

// IsOpen reports whether id is expanded.
func (a *Accordion) IsOpen(id string) bool {
	return a.open[id]
}

// Expanded returns the expanded items in sorted order.
func (a *Accordion) Expanded() []string {
	ids := make([]string, 0, len(a.open))
	for id := range a.open {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Anchor is a named section starting at a line of the page.
type Anchor struct {
	ID   string
	Line int
}

// ScrollTarget resolves an anchor reference ("#forecast" or "forecast") to
// the line the page should scroll to.
func ScrollTarget(anchors []Anchor, ref string) (int, bool) {
	id := strings.TrimPrefix(ref, "#")
	for _, a := range anchors {
		if a.ID == id {
			return a.Line, true
		}
	}
	return 0, false
}

// RevealSet remembers which sections have been revealed. A revealed
// section stays revealed.
type RevealSet struct {
	revealed map[string]bool
}

// NewRevealSet creates an empty set.
func NewRevealSet() *RevealSet {
	return &RevealSet{revealed: make(map[string]bool)}
}

// Update reveals every anchor whose top edge is within reach of a viewport
// scrolled to scrollLine and viewportLines tall.
func (r *RevealSet) Update(anchors []Anchor, scrollLine, viewportLines int) {
	height := rowsToPx(viewportLines)
	for _, a := range anchors {
		if Revealed(rowsToPx(a.Line-scrollLine), height) {
			r.revealed[a.ID] = true
		}
	}
}

// IsRevealed reports whether id has been revealed.
func (r *RevealSet) IsRevealed(id string) bool {
	return r.revealed[id]
}
