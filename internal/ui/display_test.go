package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"airdash/internal/controller"
)

func TestRegions_Transitions(t *testing.T) {
	r := NewRegions()
	assert.Equal(t, RegionState{Initial: true}, r.Snapshot())

	r.ShowLoading()
	s := r.Snapshot()
	assert.True(t, s.Loading)
	assert.False(t, s.Initial || s.Error || s.Results)

	r.ShowDashboard(controller.Dashboard{LocationName: "Delhi, IN"})
	r.HideLoading()
	s = r.Snapshot()
	assert.True(t, s.Results)
	assert.False(t, s.Loading || s.Error || s.Initial)
	assert.Equal(t, "Delhi, IN", s.Dashboard.LocationName)

	r.ShowLoading()
	r.ShowError("Failed to fetch data: upstream timeout")
	s = r.Snapshot()
	assert.True(t, s.Error)
	assert.False(t, s.Loading || s.Results || s.Initial)
	assert.Equal(t, "Failed to fetch data: upstream timeout", s.Message)
}
