package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
)

// DefaultRefreshInterval is how often a Tracker redraws.
const DefaultRefreshInterval = 100 * time.Millisecond

// ProgressFunc reports completed and total work units.
type ProgressFunc func() (done, total int64)

// Tracker redraws a single-line progress bar while a scan runs.
type Tracker struct {
	w        io.Writer
	label    string
	source   ProgressFunc
	interval time.Duration
	bar      progress.Model

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithRefreshInterval sets the redraw interval.
func WithRefreshInterval(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithBarWidth sets the width of the bar itself.
func WithBarWidth(width int) TrackerOption {
	return func(t *Tracker) {
		if width > 0 {
			t.bar.Width = width
		}
	}
}

// NewTracker returns a Tracker drawing to w. The bar width follows the
// terminal width of w.
func NewTracker(w io.Writer, label string, source ProgressFunc, opts ...TrackerOption) *Tracker {
	width := TerminalWidth(w) - len(label) - 24
	width = max(10, min(width, 50))

	t := &Tracker{
		w:        w,
		label:    label,
		source:   source,
		interval: DefaultRefreshInterval,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(width)),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins redrawing in the background.
func (t *Tracker) Start() {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-t.stop:
				return
			case <-ticker.C:
				fmt.Fprint(t.w, "\r"+t.Render(t.source()))
			}
		}
	}()
}

// Stop halts redrawing, draws the final state and ends the line.
// It is safe to call more than once.
func (t *Tracker) Stop() {
	t.once.Do(func() {
		close(t.stop)
		t.wg.Wait()
		fmt.Fprintln(t.w, "\r"+t.Render(t.source()))
	})
}

// Render returns the progress line for the given counts.
func (t *Tracker) Render(done, total int64) string {
	return fmt.Sprintf("%s %s %d/%d", InfoStyle.Render(t.label), t.bar.ViewAs(Fraction(done, total)), done, total)
}

// Fraction returns done/total clamped to [0, 1]. An empty total counts as complete.
func Fraction(done, total int64) float64 {
	if total <= 0 {
		return 1
	}
	f := float64(done) / float64(total)
	return max(0, min(f, 1))
}
