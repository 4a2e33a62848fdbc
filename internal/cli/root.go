// Package cli implements the sensego command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/sensego"
	"github.com/hupe1980/sensego/codec"
	"github.com/hupe1980/sensego/model"
)

// state is shared by the commands of one root command.
type state struct {
	configPath string
	cfg        Config
}

// NewRootCommand creates the sensego command tree.
func NewRootCommand() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "sensego",
		Short: "Metaheuristic word sense disambiguation",
		Long: `sensego assigns to every ambiguous word of a document the sense that
fits its context best, searching with genetic, ant colony, cuckoo or bat
strategies.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(st.configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			st.cfg = cfg
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&st.configPath, "config", "c", "", "YAML config file")
	flags.StringP("strategy", "s", "", "strategy: genetic, aca, cuckoo or bat")
	flags.Int("iterations", 0, "iterations per run")
	flags.Duration("duration", 0, "wall-clock budget per run")
	flags.Int64("seed", 0, "random seed")
	flags.Int("workers", 0, "scorer workers (0 uses GOMAXPROCS)")
	flags.String("measure", "", "similarity measure: overlap, tversky or cosine")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.String("store", "", "store type: local, minio or s3")
	flags.String("store-path", "", "directory of the local store")

	root.AddCommand(
		newDisambiguateCommand(st),
		newScoreCommand(st),
		newTuneCommand(st),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *Config) error {
	flags := cmd.Flags()
	if flags.Changed("strategy") {
		cfg.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("iterations") || flags.Changed("duration") {
		cfg.Budget.Iterations, _ = flags.GetInt("iterations")
		cfg.Budget.Duration, _ = flags.GetDuration("duration")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg.Seed = &seed
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("measure") {
		cfg.Measure.Name, _ = flags.GetString("measure")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("store") {
		cfg.Store.Type, _ = flags.GetString("store")
	}
	if flags.Changed("store-path") {
		cfg.Store.Path, _ = flags.GetString("store-path")
	}
	return cfg.Validate()
}

func (st *state) codec() codec.Codec {
	if c, ok := codec.ByName(st.cfg.Store.Codec); ok {
		return c
	}
	return codec.Default
}

func (st *state) corpus(args []string) ([]model.Document, error) {
	if len(args) == 0 {
		return nil, errors.New("no corpus files given")
	}
	docs, err := LoadCorpus(st.codec(), args...)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, errors.New("corpus is empty")
	}
	return docs, nil
}

// engine builds an engine from the configuration. The returned function
// closes it and stops the metrics endpoint.
func (st *state) engine(ctx context.Context) (*sensego.Engine, func(), error) {
	measure, err := st.cfg.NewMeasure()
	if err != nil {
		return nil, nil, err
	}
	opts, err := st.cfg.EngineOptions(ctx)
	if err != nil {
		return nil, nil, err
	}

	var srv *http.Server
	if st.cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		collector, err := sensego.NewPrometheusCollector(reg)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, sensego.WithMetricsCollector(collector))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv = &http.Server{Addr: st.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	}

	eng, err := sensego.New(measure, opts...)
	if err != nil {
		return nil, nil, err
	}

	logger, _ := st.cfg.NewLogger()
	if srv != nil {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "addr", srv.Addr, "error", err)
			}
		}()
	}

	closeFn := func() {
		_ = eng.Close()
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}
	}
	return eng, closeFn, nil
}

// applyParameters sets the configured parameter overrides on eng.
func (st *state) applyParameters(eng *sensego.Engine) error {
	params, err := st.cfg.parameters()
	if err != nil {
		return err
	}
	for _, p := range params {
		eng.SetParameters(p)
	}
	return nil
}

// writeJSON writes v as one line of JSON.
func (st *state) writeJSON(w io.Writer, v any) error {
	data, err := st.codec().Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
