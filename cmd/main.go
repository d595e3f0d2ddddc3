package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/okian/chatgraph/internal/adapters/http/api"
	"github.com/okian/chatgraph/internal/adapters/render"
	"github.com/okian/chatgraph/internal/adapters/source"
	app "github.com/okian/chatgraph/internal/app"
	"github.com/okian/chatgraph/internal/config"
	"github.com/okian/chatgraph/pkg/logger"
	"github.com/okian/chatgraph/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	maxLeaderboard    = 1000
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "chatgraph [flags] format:path...",
		Short: "Chart who you talk to over time from chat exports",
		Long: `chatgraph reads chat-export archives, credits every message to the people
involved, smooths daily activity and charts the top correspondents.

Archives are given as format:path, for example:
  chatgraph --user "Jane Doe" facebook:~/Downloads/facebook adium:~/Library/Logs hangouts:~/Takeout

Every flag can also be set in a YAML file (--config or CHATGRAPH_CONFIG)
or through CHATGRAPH_<KEY> environment variables.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile, changedFlags(cmd.Flags()), args)
		},
	}

	defaults := config.New()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML config file")
	f.String("user", defaults.User, "your display name in the archives")
	f.String("start-date", defaults.StartDate, "first charted day, YYYY-MM-DD")
	f.String("end-date", defaults.EndDate, "day after the last charted day, YYYY-MM-DD (default today)")
	f.String("timezone", defaults.Timezone, "IANA zone used to assign messages to days")
	f.Int("top-n", defaults.TopN, "number of people charted individually")
	f.String("kernel", defaults.Kernel, "smoothing kernel: gaussian or box")
	f.Float64("kernel-stdev-days", defaults.KernelStdevDays, "Gaussian standard deviation in days")
	f.Int("half-window-days", defaults.HalfWindowDays, "smoothing radius in days")
	f.Bool("enable-group-chats", defaults.EnableGroupChats, "include conversations with more than one other person")
	f.Bool("word-count-weighting", defaults.WordCountWeighting, "weigh messages by word count instead of 1")
	f.Bool("anonymize", defaults.Anonymize, "replace charted names")
	f.StringSlice("anonymization-names", defaults.AnonymizationNames, "replacement names in rank order")
	f.String("anonymization-names-file", defaults.AnonymizationNamesFile, "file with one replacement name per line")
	f.String("name-normalization-file", defaults.NameNormalizationFile, "JSON object mapping raw names to person keys")
	f.Bool("dedupe-messages", defaults.DedupeMessages, "count messages found in several archives once")
	f.Int("smooth-workers", defaults.SmoothWorkers, "parallel smoothing workers")
	f.StringP("output", "o", defaults.Output, `chart destination, "-" for stdout`)
	f.String("output-format", defaults.OutputFormat, "html or json")
	f.String("title", defaults.Title, "chart title")
	f.String("metrics-file", defaults.MetricsFile, "write Prometheus metrics here after the run")
	f.String("addr", defaults.Addr, "serve the chart on this address instead of writing it")
	f.String("log-level", defaults.LogLevel, "debug, info, warn or error")
	f.String("log-format", defaults.LogFormat, "text or json")

	cmd.AddCommand(newFormatsCommand())
	return cmd
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported archive formats",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, f := range app.DefaultRegistry().Formats() {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
		},
	}
}

// changedFlags returns the flags set on the command line keyed by config key.
// Flag names are config keys with dashes for underscores.
func changedFlags(fs *pflag.FlagSet) map[string]any {
	out := map[string]any{}
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			out[key] = sv.GetSlice()
			return
		}
		out[key] = f.Value.String()
	})
	return out
}

func run(ctx context.Context, configFile string, overrides map[string]any, args []string) error {
	cfg, err := config.Load(ctx, config.WithFile(configFile), config.WithOverrides(overrides))
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	settings, err := cfg.Resolve()
	if err != nil {
		return err
	}

	specs := make([]source.Spec, 0, len(args))
	for _, arg := range args {
		spec, err := source.ParseSpec(arg)
		if err != nil {
			return err
		}
		specs = append(specs, spec)
	}

	svc := app.New(settings, app.WithLogger(log.Named("service")))
	chart, runErr := svc.Run(ctx, specs)

	if settings.MetricsFile != "" {
		if err := metrics.WriteTextfile(settings.MetricsFile); err != nil {
			log.Error(ctx, "metrics textfile not written", logger.Error(err))
		}
	}
	// A partial chart is still written or served; the run exits non-zero.
	if runErr != nil && !errors.Is(runErr, app.ErrPartialSmoothing) {
		return runErr
	}
	if runErr != nil {
		log.Error(ctx, "chart is missing persons", logger.Error(runErr))
	}

	if settings.Addr != "" {
		return serve(ctx, settings.Addr, svc)
	}

	if err := render.ToFile(settings.Output, settings.OutputFormat, chart); err != nil {
		return err
	}
	if settings.Output != render.StdoutPath {
		log.Info(ctx, "chart written",
			logger.String("output", settings.Output),
			logger.String("format", settings.OutputFormat),
		)
	}
	return runErr
}

// serve exposes the chart until ctx is cancelled.
func serve(ctx context.Context, addr string, svc *app.Service) error {
	log := logger.Get()

	mux := http.NewServeMux()
	api.NewServer(svc, svc, maxLeaderboard).Register(ctx, mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}
