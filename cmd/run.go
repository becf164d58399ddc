package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forest-guardian/index-series/internal/cache"
	"github.com/forest-guardian/index-series/internal/delivery"
	"github.com/forest-guardian/index-series/internal/field"
	"github.com/forest-guardian/index-series/internal/notification"
	"github.com/forest-guardian/index-series/internal/series"
	"github.com/forest-guardian/index-series/internal/utils"
)

var (
	runInput   string
	runIndices string
	runStart   string
	runEnd     string
	runField   string
	runPlotID  string
	runNoPlot  bool
	runNoCache bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Regularize one or more indices of a field",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "run"))

		opts, err := runOptions()
		if err != nil {
			return err
		}

		discord := notification.NewDiscord(cfg.Notification.DiscordSuccessURL, cfg.Notification.DiscordErrorURL)

		outcomes, runErr := delivery.RunIndices(ctx, opts)
		printOutcomes(cmd.OutOrStdout(), outcomes)
		if runErr != nil {
			log.Error("run finished with errors", zap.Error(runErr))
			notify(ctx, log, discord.SendError, runErr.Error())
			return runErr
		}

		notify(ctx, log, discord.SendSuccess, successMessage(opts, outcomes))
		return nil
	},
}

func runOptions() (delivery.Options, error) {
	start, err := time.Parse(series.DateLayout, runStart)
	if err != nil {
		return delivery.Options{}, eris.Wrapf(err, "parse --start %q", runStart)
	}
	end, err := time.Parse(series.DateLayout, runEnd)
	if err != nil {
		return delivery.Options{}, eris.Wrapf(err, "parse --end %q", runEnd)
	}
	if err := cfg.Validate(); err != nil {
		return delivery.Options{}, err
	}

	opts := delivery.Options{
		InputPath:    runInput,
		Indices:      splitList(runIndices),
		Start:        start,
		End:          end,
		Engine:       cfg.Engine,
		OutputDir:    cfg.Output.Dir,
		Plot:         !runNoPlot,
		Workers:      cfg.Workers,
		ShowProgress: true,
	}
	if runField != "" {
		f, err := field.Load(runField, runPlotID)
		if err != nil {
			return delivery.Options{}, err
		}
		opts.Field = f
	}
	if cfg.Cache.Enabled && !runNoCache {
		opts.Cache = cache.NewFileCache[*series.Result](cfg.Cache.Dir, "series")
	}
	return opts, nil
}

func printOutcomes(w io.Writer, outcomes []delivery.Outcome) {
	for _, out := range outcomes {
		if out.Err != nil {
			fmt.Fprintf(w, "%-6s failed: %v\n", out.Index, out.Err)
			continue
		}
		s := out.Summary
		fmt.Fprintf(w, "%-6s %d days, %d observed, %d short-gap, %d long-gap, %d cloud-rejected, %d no-data, %d corrected -> %s\n",
			out.Index, s.TotalDays, s.Observed, s.ShortGapFilled, s.LongGapFilled, s.RejectedCloud, s.RejectedNoData, s.OutOfRangeCorrected, out.Paths.CSV)
		if len(s.GapHistogram) > 0 {
			parts := make([]string, 0, len(s.GapHistogram))
			for _, length := range utils.SortedKeys(s.GapHistogram, true) {
				parts = append(parts, fmt.Sprintf("%dd x%d", length, s.GapHistogram[length]))
			}
			fmt.Fprintf(w, "       gaps: %s\n", strings.Join(parts, ", "))
		}
		for _, issue := range s.Issues {
			fmt.Fprintf(w, "       warning: %s\n", issue)
		}
	}
}

func successMessage(opts delivery.Options, outcomes []delivery.Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Series for %s to %s", opts.Start.Format(series.DateLayout), opts.End.Format(series.DateLayout))
	if opts.Field != nil {
		fmt.Fprintf(&b, " of %s", opts.Field.Name)
	}
	b.WriteString(":")
	for _, out := range outcomes {
		fmt.Fprintf(&b, "\n%s: %d observed of %d days", out.Index, out.Summary.Observed, out.Summary.TotalDays)
	}
	return b.String()
}

func notify(ctx context.Context, log *zap.Logger, send func(context.Context, string) error, msg string) {
	if err := send(ctx, msg); err != nil {
		log.Warn("discord notification failed", zap.Error(err))
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "observations CSV (required)")
	runCmd.Flags().StringVar(&runIndices, "index", "", "comma separated index names, e.g. savi,bsi (required)")
	runCmd.Flags().StringVar(&runStart, "start", "", "first day of the series, YYYY-MM-DD (required)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "last day of the series, YYYY-MM-DD (required)")
	runCmd.Flags().StringVar(&runField, "field", "", "GeoJSON with the field polygon")
	runCmd.Flags().StringVar(&runPlotID, "plot-id", "", "plot_id of the feature in --field")
	runCmd.Flags().BoolVar(&runNoPlot, "no-plot", false, "skip the PNG plot")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "ignore cached engine results")
	for _, name := range []string{"input", "index", "start", "end"} {
		_ = runCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(runCmd)
}
