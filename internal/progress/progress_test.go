package progress

import (
	"errors"
	"testing"
)

func TestQuietTrackerIsSafe(t *testing.T) {
	tr := NewTracker("fingerprinting", 3, true)
	tr.Tick()
	tr.Tick()
	tr.FinishSuccess()
	tr.FinishError(errors.New("extraction failed"))
}

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker("scoring", 2, false)
	tr.Tick()
	tr.Tick()
	tr.FinishSuccess()

	tr = NewTracker("extracting", 1, false)
	tr.Tick()
	tr.FinishError(errors.New("bad archive"))
}
