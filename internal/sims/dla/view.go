package dla

const (
	initialViewSize = 40
	viewGrowth      = 1.2
)

// ViewTracker keeps a visible width that follows the growing kill
// sphere. It holds no rendering state; renderers read View.
type ViewTracker struct {
	view float64
}

// NewViewTracker returns a tracker at the initial view size.
func NewViewTracker() *ViewTracker {
	return &ViewTracker{view: initialViewSize}
}

// View returns the current visible extent.
func (v *ViewTracker) View() float64 { return v.view }

// SpawnGrew zooms out one notch while the view is narrower than the kill
// sphere's diameter.
func (v *ViewTracker) SpawnGrew(s GrowthState) {
	if v.view < 2*s.KillRadius {
		v.view *= viewGrowth
	}
}

// FitSpawn zooms in on the spawn sphere.
func (v *ViewTracker) FitSpawn(s GrowthState) {
	v.view = 2 * s.SpawnRadius
}

// Reset restores the initial view size.
func (v *ViewTracker) Reset() { v.view = initialViewSize }
