package output

import (
	"fmt"
	"io"

	"github.com/benthepsychologist/final-form/internal/config"
	"github.com/benthepsychologist/final-form/internal/pipeline"
)

// Outputter picks the formatter for the configured format.
type Outputter struct {
	cfg *config.Config
	w   io.Writer
}

// NewOutputter creates an Outputter writing to w.
func NewOutputter(cfg *config.Config, w io.Writer) *Outputter {
	return &Outputter{cfg: cfg, w: w}
}

// Format renders results in the configured format.
func (o *Outputter) Format(results []*pipeline.ProcessingResult) error {
	switch o.cfg.Format {
	case "console":
		return NewConsoleFormatter(o.w, o.cfg.Quiet, o.cfg.Verbose).Format(results)
	case "json":
		return NewJSONFormatter(o.w, true, o.cfg.Output).Format(results)
	default:
		return fmt.Errorf("unsupported format: %s", o.cfg.Format)
	}
}
