package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/gramscope/internal/batch"
	"github.com/sells-group/gramscope/internal/model"
	"github.com/sells-group/gramscope/internal/pipeline"
	"github.com/sells-group/gramscope/internal/resilience"
	"github.com/sells-group/gramscope/internal/store"
	"github.com/sells-group/gramscope/pkg/instagram"
)

var (
	fetchInput          string
	fetchOutput         string
	fetchConcurrency    int
	fetchAllowAnonymous bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [username...]",
	Short: "Fetch profile records for a batch of usernames",
	Long:  "Fetches each username's public profile, conditionally enriches it with business contact and related-profile data, and writes one JSON line per successful record. Progress streams to stderr in completion order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if fetchAllowAnonymous {
			cfg.Instagram.AllowAnonymous = true
		}
		if fetchConcurrency > 0 {
			cfg.Fetch.Concurrency = fetchConcurrency
		}

		// A bad configuration fails the whole batch; reject it before
		// anything is dispatched.
		if err := cfg.Validate(); err != nil {
			return err
		}

		raw := args
		if fetchInput != "" {
			fromFile, err := batch.LoadIdentifiers(fetchInput)
			if err != nil {
				return err
			}
			raw = append(raw, fromFile...)
		}
		if len(raw) == 0 {
			return eris.New("fetch: no usernames given (pass arguments or --input)")
		}

		client, err := buildClient()
		if err != nil {
			return err
		}

		backoff := resilience.BackoffPolicy{
			Base: time.Duration(cfg.Fetch.BackoffBaseSecs * float64(time.Second)),
			Max:  time.Duration(cfg.Fetch.BackoffMaxSecs * float64(time.Second)),
		}
		supervisor := pipeline.NewSupervisor(pipeline.New(client), cfg.Fetch.MaxAttempts, backoff)

		out, closeOut, err := openOutput(fetchOutput)
		if err != nil {
			return err
		}
		defer closeOut()
		sink := batch.NewJSONLSink(out)

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}
		}

		orch := batch.New(supervisor, sink, cfg.Fetch.Concurrency, func(line string, _ *model.ProfileRecord) {
			fmt.Fprintln(os.Stderr, line)
		})

		var run *model.Run
		if st != nil {
			run, err = st.CreateRun(ctx, len(batch.Admit(raw)))
			if err != nil {
				return err
			}
		}

		summary := orch.Run(ctx, raw)

		fmt.Fprintf(os.Stderr, "done: %d succeeded, %d failed", summary.Succeeded, summary.Failed)
		if summary.Aborted > 0 {
			fmt.Fprintf(os.Stderr, ", %d aborted", summary.Aborted)
		}
		fmt.Fprintln(os.Stderr)

		if st != nil && run != nil {
			if err := persistRun(context.WithoutCancel(ctx), st, run.ID, summary); err != nil {
				zap.L().Warn("failed to persist run history", zap.Error(err))
			}
		}

		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchInput, "input", "", "file of usernames (yaml sequence or one per line)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "", "write records to file instead of stdout")
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 0, "max usernames in flight (overrides config)")
	fetchCmd.Flags().BoolVar(&fetchAllowAnonymous, "allow-anonymous", false, "allow running without a session cookie")
	rootCmd.AddCommand(fetchCmd)
}

// buildClient assembles the API client from configuration.
func buildClient() (instagram.Client, error) {
	opts := []instagram.Option{
		instagram.WithTimeout(time.Duration(cfg.Fetch.TimeoutSecs) * time.Second),
	}
	if cfg.Instagram.BaseURL != "" {
		opts = append(opts, instagram.WithBaseURL(cfg.Instagram.BaseURL))
	}
	if cfg.Instagram.AppID != "" {
		opts = append(opts, instagram.WithAppID(cfg.Instagram.AppID))
	}
	if cfg.Instagram.UserAgent != "" {
		opts = append(opts, instagram.WithUserAgent(cfg.Instagram.UserAgent))
	}
	if cfg.Instagram.SessionCookie != "" {
		opts = append(opts, instagram.WithSessionCookie(cfg.Instagram.SessionCookie))
	}
	if cfg.Fetch.RequestsPerSec > 0 {
		opts = append(opts, instagram.WithRateLimit(cfg.Fetch.RequestsPerSec, 1))
	}
	if len(cfg.Proxy.URLs) > 0 {
		rotator, err := instagram.NewStaticRotator(cfg.Proxy.URLs)
		if err != nil {
			return nil, err
		}
		opts = append(opts, instagram.WithProxyProvider(rotator))
	}
	return instagram.NewClient(opts...), nil
}

// openOutput returns stdout when no path is given. The returned closer is a
// no-op for stdout.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "fetch: create output file %s", path)
	}
	return f, func() { f.Close() }, nil
}

// persistRun records per-identifier outcomes and closes out the run row.
func persistRun(ctx context.Context, st store.Store, runID string, summary *batch.Summary) error {
	if err := st.InsertRecords(ctx, runID, summary.Records); err != nil {
		return err
	}

	status := model.RunStatusComplete
	if summary.Aborted > 0 {
		status = model.RunStatusAborted
	}
	return st.CompleteRun(ctx, runID, &model.RunSummary{
		Status:    status,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
	})
}
