package ui

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// NewProgressBar returns a bar counting the items of one export format.
func NewProgressBar(total int, description string) *progressbar.ProgressBar {
	return newProgressBar(os.Stderr, total, description)
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(false),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetWidth(30),
	)
}

// Tracker renders batch progress, restarting the bar at each format change.
type Tracker struct {
	w      io.Writer
	bar    *progressbar.ProgressBar
	format string
	quiet  bool
}

// NewTracker creates a Tracker writing to stderr. A quiet tracker draws nothing.
func NewTracker(quiet bool) *Tracker {
	return &Tracker{w: os.Stderr, quiet: quiet}
}

// Update moves the bar of format to processed out of total.
func (t *Tracker) Update(format string, processed, total int) {
	if t == nil || t.quiet {
		return
	}
	if t.bar == nil || format != t.format {
		t.Finish()
		t.bar = newProgressBar(t.w, total, "Exporting "+format)
		t.format = format
	}
	_ = t.bar.Set(processed)
}

// Finish completes and clears the current bar.
func (t *Tracker) Finish() {
	if t == nil || t.bar == nil {
		return
	}
	_ = t.bar.Finish()
	t.bar = nil
}
