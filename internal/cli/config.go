package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/sensego"
	"github.com/hupe1980/sensego/blobstore"
	minioblob "github.com/hupe1980/sensego/blobstore/minio"
	s3blob "github.com/hupe1980/sensego/blobstore/s3"
	"github.com/hupe1980/sensego/codec"
	"github.com/hupe1980/sensego/score"
	"github.com/hupe1980/sensego/similarity"
	"github.com/hupe1980/sensego/stop"
	"github.com/hupe1980/sensego/strategy"
	"github.com/hupe1980/sensego/tuning"
)

// Config is the YAML configuration of the command line tool.
type Config struct {
	Strategy string        `yaml:"strategy"`
	Budget   stop.Budget   `yaml:"budget"`
	Seed     *int64        `yaml:"seed"`
	Workers  int           `yaml:"workers"`
	Measure  MeasureConfig `yaml:"measure"`
	Log      LogConfig     `yaml:"log"`
	Store    StoreConfig   `yaml:"store"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Tuning   TuningConfig  `yaml:"tuning"`
	// Parameters overrides strategy parameters by strategy and parameter
	// name, e.g. parameters.genetic.population.
	Parameters map[string]map[string]float64 `yaml:"parameters"`
}

// MeasureConfig selects and throttles the similarity measure.
type MeasureConfig struct {
	// Name is "overlap", "tversky" or "cosine".
	Name      string  `yaml:"name"`
	Normalize bool    `yaml:"normalize"`
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Ratio     bool    `yaml:"ratio"`

	RatePerSec  float64 `yaml:"rate_per_sec"`
	Burst       int     `yaml:"burst"`
	MaxInFlight int64   `yaml:"max_in_flight"`
}

// LogConfig configures logging to stderr.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// StoreConfig selects the blob store for score snapshots and tuning
// results.
type StoreConfig struct {
	// Type is "", "local", "minio" or "s3". Empty disables persistence.
	Type      string `yaml:"type"`
	Path      string `yaml:"path"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`

	Compression  string `yaml:"compression"`
	Codec        string `yaml:"codec"`
	AutoSnapshot bool   `yaml:"auto_snapshot"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// TuningConfig configures the tune command.
type TuningConfig struct {
	Repetitions int         `yaml:"repetitions"`
	Nests       int         `yaml:"nests"`
	Distance    float64     `yaml:"distance"`
	Budget      stop.Budget `yaml:"budget"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Strategy: strategy.Genetic.String(),
		Budget:   stop.Iterations(100),
		Measure:  MeasureConfig{Name: "overlap", Alpha: 0.5, Beta: 0.5},
		Log:      LogConfig{Level: "info", Format: "text"},
		Store: StoreConfig{
			Path:        "./sensego-data",
			Compression: score.DefaultOptions.Compression.String(),
			Codec:       codec.Default.Name(),
		},
		Tuning: TuningConfig{
			Repetitions: tuning.DefaultEvaluatorOptions.Repetitions,
			Nests:       tuning.DefaultSearchOptions.Nests,
			Distance:    tuning.DefaultSearchOptions.Distance,
			Budget:      stop.Iterations(20),
		},
	}
}

// LoadConfig reads the YAML file at path over DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field that has a closed set of values.
func (c Config) Validate() error {
	if _, err := strategy.ParseKind(c.Strategy); err != nil {
		return err
	}
	if err := c.Budget.Validate(); err != nil {
		return fmt.Errorf("budget: %w", err)
	}
	if err := c.Tuning.Budget.Validate(); err != nil {
		return fmt.Errorf("tuning budget: %w", err)
	}
	if _, err := c.NewMeasure(); err != nil {
		return err
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch c.Store.Type {
	case "", "local", "minio", "s3":
	default:
		return fmt.Errorf("unknown store type %q", c.Store.Type)
	}
	if _, err := score.ParseCompression(c.Store.Compression); err != nil {
		return err
	}
	if _, ok := codec.ByName(c.Store.Codec); !ok {
		return fmt.Errorf("unknown codec %q", c.Store.Codec)
	}
	if c.Store.AutoSnapshot && c.Store.Type == "" {
		return errors.New("store.auto_snapshot requires a store type")
	}
	_, err := c.parameters()
	return err
}

// Kind returns the configured strategy.
func (c Config) Kind() strategy.Kind {
	kind, err := strategy.ParseKind(c.Strategy)
	if err != nil {
		return strategy.Genetic
	}
	return kind
}

// NewMeasure builds the configured similarity measure. Throttling is
// applied by the engine.
func (c Config) NewMeasure() (similarity.Measure, error) {
	switch strings.ToLower(c.Measure.Name) {
	case "", "overlap":
		m := similarity.NewOverlap()
		m.Normalize = c.Measure.Normalize
		return m, nil
	case "tversky":
		return similarity.NewTversky(c.Measure.Alpha, c.Measure.Beta, c.Measure.Ratio), nil
	case "cosine":
		return similarity.WeightedCosine{}, nil
	default:
		return nil, fmt.Errorf("unknown measure %q", c.Measure.Name)
	}
}

func (m MeasureConfig) limits() (similarity.Limits, bool) {
	l := similarity.Limits{RatePerSec: m.RatePerSec, Burst: m.Burst, MaxInFlight: m.MaxInFlight}
	return l, l.RatePerSec > 0 || l.MaxInFlight > 0
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// NewLogger builds the configured logger.
func (c Config) NewLogger() (*sensego.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if c.Log.Format == "json" {
		return sensego.NewJSONLogger(level), nil
	}
	return sensego.NewTextLogger(level), nil
}

// parameters returns the parameter overrides by strategy.
func (c Config) parameters() ([]tuning.Parameters, error) {
	var out []tuning.Parameters
	for name, values := range c.Parameters {
		kind, err := strategy.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("parameters: %w", err)
		}
		p, err := tuning.NewParameters(kind)
		if err != nil {
			return nil, err
		}
		if err := p.SetValues(values); err != nil {
			return nil, fmt.Errorf("parameters.%s: %w", name, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// OpenStore opens the configured blob store, or returns nil when no store
// is configured.
func (s StoreConfig) OpenStore(ctx context.Context) (blobstore.Store, error) {
	switch s.Type {
	case "":
		return nil, nil
	case "local":
		if err := os.MkdirAll(s.Path, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		return blobstore.NewLocalStore(s.Path), nil
	case "minio":
		client, err := minio.New(s.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(s.AccessKey, s.SecretKey, ""),
			Secure: s.Secure,
			Region: s.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		return minioblob.NewStore(client, s.Bucket, s.Prefix), nil
	case "s3":
		optFns := []func(*s3blob.Options){s3blob.WithPrefix(s.Prefix)}
		if s.Region != "" {
			optFns = append(optFns, s3blob.WithRegion(s.Region))
		}
		if s.Endpoint != "" {
			optFns = append(optFns, s3blob.WithEndpoint(s.Endpoint))
		}
		return s3blob.New(ctx, s.Bucket, optFns...)
	default:
		return nil, fmt.Errorf("unknown store type %q", s.Type)
	}
}

// EngineOptions maps the configuration onto engine options.
func (c Config) EngineOptions(ctx context.Context) ([]sensego.Option, error) {
	logger, err := c.NewLogger()
	if err != nil {
		return nil, err
	}
	compression, err := score.ParseCompression(c.Store.Compression)
	if err != nil {
		return nil, err
	}
	cd, ok := codec.ByName(c.Store.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q", c.Store.Codec)
	}

	opts := []sensego.Option{
		sensego.WithStrategy(c.Kind()),
		sensego.WithBudget(c.Budget),
		sensego.WithWorkers(c.Workers),
		sensego.WithLogger(logger),
		sensego.WithCompression(compression),
		sensego.WithCodec(cd),
		sensego.WithEvaluatorOptions(func(o *tuning.EvaluatorOptions) {
			o.Repetitions = c.Tuning.Repetitions
		}),
		sensego.WithSearchOptions(func(o *tuning.SearchOptions) {
			o.Nests = c.Tuning.Nests
			o.Distance = c.Tuning.Distance
		}),
	}
	if c.Seed != nil {
		opts = append(opts, sensego.WithRandomSeed(*c.Seed))
	}
	if l, ok := c.Measure.limits(); ok {
		opts = append(opts, sensego.WithThrottle(l))
	}

	store, err := c.Store.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, sensego.WithStore(store))
		if c.Store.AutoSnapshot {
			opts = append(opts, sensego.WithAutoSnapshot())
		}
	}
	return opts, nil
}
