package cli

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/whispera-app/whispera/internal/pipeline"
)

// drainProgress consumes pipeline checkpoints on the interaction goroutine
// and renders them as a terminal progress bar. Returns when the channel is
// closed by the worker.
func drainProgress(w io.Writer, updates <-chan pipeline.Progress, enabled bool) {
	if !enabled {
		for range updates {
		}
		return
	}

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	for p := range updates {
		bar.Describe(p.Message)
		_ = bar.Set(p.Percent)
	}
	_ = bar.Finish()
	_, _ = fmt.Fprintln(w)
}
