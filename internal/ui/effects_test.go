package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavbarScrolled(t *testing.T) {
	assert.False(t, NavbarScrolled(0))
	assert.False(t, NavbarScrolled(50))
	assert.True(t, NavbarScrolled(51))
	assert.True(t, NavbarScrolled(rowsToPx(4)))
	assert.False(t, NavbarScrolled(rowsToPx(3)))
}

func TestRevealed(t *testing.T) {
	assert.True(t, Revealed(0, 800))
	assert.True(t, Revealed(699, 800))
	assert.False(t, Revealed(700, 800))
	assert.False(t, Revealed(900, 800))
	assert.True(t, Revealed(-50, 800))
}

func TestAccordion_TogglesIndependently(t *testing.T) {
	a := NewAccordion([]string{"what"})
	assert.True(t, a.IsOpen("what"))
	assert.False(t, a.IsOpen("tips"))

	assert.True(t, a.Toggle("tips"))
	assert.True(t, a.IsOpen("what"))
	assert.Equal(t, []string{"tips", "what"}, a.Expanded())

	assert.False(t, a.Toggle("what"))
	assert.False(t, a.IsOpen("what"))
	assert.True(t, a.IsOpen("tips"))

	// Toggling twice is a no-op.
	a.Toggle("levels")
	a.Toggle("levels")
	assert.Equal(t, []string{"tips"}, a.Expanded())
}

func TestScrollTarget(t *testing.T) {
	anchors := []Anchor{{ID: "home", Line: 0}, {ID: "dashboard", Line: 12}, {ID: "forecast", Line: 40}}

	line, ok := ScrollTarget(anchors, "#forecast")
	assert.True(t, ok)
	assert.Equal(t, 40, line)

	line, ok = ScrollTarget(anchors, "dashboard")
	assert.True(t, ok)
	assert.Equal(t, 12, line)

	_, ok = ScrollTarget(anchors, "#missing")
	assert.False(t, ok)
}

func TestRevealSet_StaysRevealed(t *testing.T) {
	anchors := []Anchor{{ID: "top", Line: 2}, {ID: "far", Line: 60}}
	r := NewRevealSet()

	// 30 rows = 480px; reveal line is 380px = row 23.75.
	r.Update(anchors, 0, 30)
	assert.True(t, r.IsRevealed("top"))
	assert.False(t, r.IsRevealed("far"))

	r.Update(anchors, 50, 30)
	assert.True(t, r.IsRevealed("far"))

	r.Update(anchors, 0, 30)
	assert.True(t, r.IsRevealed("far"))
}
