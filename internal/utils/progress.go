package utils

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

// Progress is a single mpb bar on stderr. It does nothing when disabled or
// when stderr is not a terminal. Safe for use from several goroutines.
type Progress struct {
	mu          sync.Mutex
	container   *mpb.Progress
	bar         *mpb.Bar
	enabled     bool
	current     int
	description string
}

var descLength = 24

// NewProgress creates a progress bar counting up to total
func NewProgress(total int, enabled bool) *Progress {
	p := &Progress{enabled: enabled && isTerminal()}
	if !p.enabled {
		return p
	}

	fmt.Fprintln(os.Stderr)

	p.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)
	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				p.mu.Lock()
				defer p.mu.Unlock()
				if len(p.description) > descLength {
					return p.description[:descLength-2] + ".."
				}
				return p.description
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	return p
}

// Enabled reports whether the bar is drawn
func (p *Progress) Enabled() bool {
	return p.enabled
}

// Update sets the bar to current and shows description beside it
func (p *Progress) Update(current int, description string) {
	if !p.enabled || p.bar == nil {
		return
	}
	p.mu.Lock()
	p.current = current
	p.description = description
	p.mu.Unlock()
	p.bar.SetCurrent(int64(current))
}

// Increment advances the bar by one
func (p *Progress) Increment(description string) {
	if !p.enabled || p.bar == nil {
		return
	}
	p.mu.Lock()
	p.current++
	p.description = description
	p.mu.Unlock()
	p.bar.Increment()
}

// Finish completes the bar and waits for the final render
func (p *Progress) Finish() {
	if !p.enabled || p.container == nil {
		return
	}
	p.bar.SetTotal(-1, true)
	p.container.Wait()
	fmt.Fprintln(os.Stderr)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
