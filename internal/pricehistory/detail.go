package pricehistory

import (
	"github.com/rewired-gh/polysoccer/internal/models"
)

// Click targets reported by front-ends.
const (
	// TargetOverlay is the dimming backdrop itself.
	TargetOverlay = "overlay"
	// TargetContent is anything inside the dialog.
	TargetContent = "content"
)

// ShouldDismiss reports whether a click on target closes the detail view.
// Only a click landing directly on the backdrop dismisses.
func ShouldDismiss(target string) bool {
	return target == TargetOverlay
}

// DetailView is the Closed/Open(event) state machine of the price-history dialog.
type DetailView struct {
	open  bool
	event models.Event
}

// Open shows event. Opening while already open switches to the new event.
func (d *DetailView) Open(event models.Event) {
	d.open = true
	d.event = event
}

// Close returns to Closed. Closing a closed view is a no-op.
func (d *DetailView) Close() {
	d.open = false
	d.event = models.Event{}
}

// HandleClick closes the view when ShouldDismiss(target) and reports whether it did.
func (d *DetailView) HandleClick(target string) bool {
	if !d.open || !ShouldDismiss(target) {
		return false
	}
	d.Close()
	return true
}

// IsOpen reports whether an event is shown.
func (d *DetailView) IsOpen() bool { return d.open }

// Event returns the shown event.
func (d *DetailView) Event() (models.Event, bool) {
	return d.event, d.open
}
