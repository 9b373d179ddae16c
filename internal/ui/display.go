package ui

import (
	"sync"

	"airdash/internal/controller"
)

// RegionState is a snapshot of which dashboard regions are visible.
type RegionState struct {
	Initial   bool
	Loading   bool
	Error     bool
	Results   bool
	Message   string
	Dashboard *controller.Dashboard
}

// Regions implements controller.Display. The controller writes to it from
// command goroutines; the model reads snapshots when rendering.
type Regions struct {
	mu    sync.Mutex
	state RegionState
}

// NewRegions starts with only the initial region visible.
func NewRegions() *Regions {
	return &Regions{state: RegionState{Initial: true}}
}

// ShowLoading shows the loading region and hides the others.
func (r *Regions) ShowLoading() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Loading = true
	r.state.Initial = false
	r.state.Error = false
	r.state.Results = false
}

// HideLoading hides the loading region.
func (r *Regions) HideLoading() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Loading = false
}

// ShowError shows msg in the error region and hides the others.
func (r *Regions) ShowError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Message = msg
	r.state.Error = true
	r.state.Loading = false
	r.state.Initial = false
	r.state.Results = false
}

// ShowDashboard shows the results region with d.
func (r *Regions) ShowDashboard(d controller.Dashboard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Dashboard = &d
	r.state.Results = true
	r.state.Initial = false
	r.state.Error = false
}

// Snapshot returns the current region state.
func (r *Regions) Snapshot() RegionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
