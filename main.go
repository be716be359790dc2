// Command musicmaker records, plays and trims audio while drawing a live
// spectrogram, and serves the interactive view over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tasmanvs/MusicMaker/config"
	"github.com/tasmanvs/MusicMaker/db"
	"github.com/tasmanvs/MusicMaker/observe"
	"github.com/tasmanvs/MusicMaker/utils"
)

var (
	yellow = color.New(color.FgYellow)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
)

// app carries what every command needs once flags and config are resolved.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *observe.Metrics
	// metricsHandler serves /metrics when metrics are enabled.
	metricsHandler http.Handler
	shutdown       func(context.Context) error
}

type globalFlags struct {
	configPath string
	logLevel   string
	noColor    bool
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := rootCmd(a)
	err := root.ExecuteContext(ctx)
	if a.shutdown != nil {
		if serr := a.shutdown(context.Background()); serr != nil {
			a.log.Warn("metrics shutdown failed", "error", serr)
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		red.Fprintln(os.Stderr, "musicmaker:", err)
		return 1
	}
	return 0
}

func rootCmd(a *app) *cobra.Command {
	var flags globalFlags
	cmd := &cobra.Command{
		Use:   "musicmaker",
		Short: "Spectrogram studio: record, play back, trim and export audio",
		Long: `musicmaker captures audio from a test tone, the microphone or a saved
sound, keeps a rolling history of spectrum frames and renders a pannable,
zoomable spectrogram. Trimmed selections export as 16-bit PCM WAV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Context(), flags)
		},
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML configuration file")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log_level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable coloured output")

	cmd.AddCommand(
		serveCmd(a),
		toneCmd(a),
		recordCmd(a),
		exportCmd(a),
		renderCmd(a),
		savedCmd(a),
	)
	return cmd
}

func (a *app) init(ctx context.Context, flags globalFlags) error {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	level, err := utils.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	color.NoColor = color.NoColor || flags.noColor

	a.cfg = cfg
	a.log = utils.NewLogger(os.Stderr, level, color.NoColor)
	slog.SetDefault(a.log)

	if cfg.Metrics {
		handler, shutdown, err := observe.InitProvider(ctx)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		a.metricsHandler = handler
		a.shutdown = shutdown
	}
	a.metrics = observe.DefaultMetrics()
	return nil
}

// openStore opens the configured sound store: sqlite when db_path is set,
// otherwise an in-memory store that lives as long as the process.
func (a *app) openStore(ctx context.Context) (db.Store, error) {
	if a.cfg.DBPath == "" {
		a.log.Debug("no db_path configured, saved sounds are kept in memory")
		return db.NewMemoryStore(), nil
	}
	store, err := db.NewSQLiteClient(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	a.log.Debug("sound store opened", "path", a.cfg.DBPath)
	return store, nil
}
