package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/ducminhle1904/crypto-grid-sim/cmd/common"
	"github.com/ducminhle1904/crypto-grid-sim/internal/sweep"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/config"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/reporting"
)

// OutputFormatter handles console output around the report tables
type OutputFormatter struct {
	w io.Writer
}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	return &OutputFormatter{w: w}
}

// ShowHeader displays the application header
func (of *OutputFormatter) ShowHeader(appName, configFile string) {
	fmt.Fprintf(of.w, "🚀 %s v%s\n", appName, common.ProjectVersion)
	if configFile != "" {
		fmt.Fprintf(of.w, "📋 Configuration: %s\n", configFile)
	}
}

// ShowConfigSummary displays configuration summary
func (of *OutputFormatter) ShowConfigSummary(cfg *config.SimulationConfig, verbose bool) {
	fmt.Fprintf(of.w, "\n📊 %s\n", cfg.GetInfo())

	if verbose {
		if cfg.Data.File != "" {
			fmt.Fprintf(of.w, "   Data File: %s\n", cfg.Data.File)
		} else if cfg.Data.Source == config.SourceCSV {
			fmt.Fprintf(of.w, "   Archive: %s (%s, %s)\n", cfg.Data.Root, cfg.Data.Exchange, cfg.Data.Interval)
		}
		if cfg.Sweep != nil {
			fmt.Fprintf(of.w, "   Sweep: lower=%s upper=%s grids=%s investment=%s\n",
				formatRange(cfg.Sweep.LowerLimit), formatRange(cfg.Sweep.UpperLimit),
				formatRange(cfg.Sweep.NumGrids), formatRange(cfg.Sweep.Investment))
		}
	}
}

func formatRange(r sweep.Range) string {
	if r.IsZero() {
		return "base"
	}
	if r.Start == r.End || r.Step == 0 {
		return fmt.Sprintf("%g", r.Start)
	}
	return fmt.Sprintf("%g:%g:%g", r.Start, r.End, r.Step)
}

// ShowDataInfo displays data loading information
func (of *OutputFormatter) ShowDataInfo(info reporting.RunInfo) {
	fmt.Fprintf(of.w, "📊 Source: %s\n", info.Source)
	if info.Samples == 0 {
		return
	}
	fmt.Fprintf(of.w, "✅ Loaded %d samples (%s to %s)\n", info.Samples,
		info.From.Format(time.DateTime), info.To.Format(time.DateTime))
}

// ShowBounds displays the grid bounds after resolution from the series
func (of *OutputFormatter) ShowBounds(cfg *config.SimulationConfig) {
	fmt.Fprintf(of.w, "📐 Grid: $%.2f - $%.2f, %d grids, $%.2f\n",
		cfg.LowerLimit, cfg.UpperLimit, cfg.NumGrids, cfg.Investment)
}

// ShowSweepProgress prints one progress line
func (of *OutputFormatter) ShowSweepProgress(tracker *sweep.ProgressTracker) {
	done, total, pct, elapsed := tracker.GetProgress()
	fmt.Fprintf(of.w, "\r🔄 Sweep: %d/%d (%.0f%%) %s, ~%s left ", done, total, pct,
		common.FormatDuration(elapsed), common.FormatDuration(tracker.EstimateTimeRemaining()))
	if done == total {
		fmt.Fprintln(of.w)
	}
}

// ShowCompletion displays completion message with report information
func (of *OutputFormatter) ShowCompletion(written []string) {
	if len(written) > 0 {
		fmt.Fprintf(of.w, "\n📁 Report directory: %s\n", filepath.Dir(written[0]))
		for _, path := range written {
			fmt.Fprintf(of.w, "📄 %s\n", filepath.Base(path))
		}
	}
	fmt.Fprintf(of.w, "✅ Grid simulation completed successfully!\n")
}
