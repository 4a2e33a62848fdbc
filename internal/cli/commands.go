package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/sensego/blobstore"
	"github.com/hupe1980/sensego/configuration"
	"github.com/hupe1980/sensego/internal/rng"
	"github.com/hupe1980/sensego/model"
	"github.com/hupe1980/sensego/stop"
)

func newDisambiguateCommand(st *state) *cobra.Command {
	var tuned bool

	cmd := &cobra.Command{
		Use:     "disambiguate [file or directory...]",
		Aliases: []string{"wsd"},
		Short:   "Disambiguate every document of a corpus",
		Long: `Runs the configured strategy on every document and prints one JSON
result per line.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := st.corpus(args)
			if err != nil {
				return err
			}
			eng, closeFn, err := st.engine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := st.applyParameters(eng); err != nil {
				return err
			}
			if tuned {
				if _, err := eng.LoadTuned(ctx, st.cfg.Kind()); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
					return fmt.Errorf("failed to load tuned parameters: %w", err)
				}
			}

			for _, doc := range docs {
				res, err := eng.Disambiguate(ctx, doc)
				if err != nil {
					return fmt.Errorf("document %s: %w", doc.ID(), err)
				}
				if err := st.writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&tuned, "tuned", false, "use the tuned parameters saved in the store")
	return cmd
}

// scoreOutput is printed by the score command.
type scoreOutput struct {
	Document string  `json:"document"`
	Senses   []int   `json:"senses"`
	Score    float64 `json:"score"`
}

func newScoreCommand(st *state) *cobra.Command {
	var (
		senses   string
		baseline string
		snapshot bool
	)

	cmd := &cobra.Command{
		Use:   "score [file or directory...]",
		Short: "Score a sense assignment",
		Long: `Scores the first-sense or a random baseline of every document, or the
assignment given with --senses for a single document.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := st.corpus(args)
			if err != nil {
				return err
			}
			if senses != "" && len(docs) != 1 {
				return errors.New("--senses requires exactly one document")
			}
			eng, closeFn, err := st.engine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			r := rng.FromOptional(st.cfg.Seed)
			for _, doc := range docs {
				var cfg *configuration.Configuration
				switch {
				case senses != "":
					cfg, err = parseSenses(doc, senses)
				case baseline == "first":
					cfg = configuration.FirstSense(doc)
				case baseline == "random":
					cfg = configuration.Random(doc, r)
				default:
					err = fmt.Errorf("unknown baseline %q", baseline)
				}
				if err != nil {
					return err
				}

				if snapshot {
					if err := eng.LoadScores(ctx, doc); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
						return err
					}
				}
				v, err := eng.Score(ctx, doc, cfg)
				if err != nil {
					return fmt.Errorf("document %s: %w", doc.ID(), err)
				}
				if snapshot {
					if err := eng.SaveScores(ctx, doc); err != nil {
						return err
					}
				}
				out := scoreOutput{Document: doc.ID(), Senses: cfg.Assignments(), Score: v}
				if err := st.writeJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&senses, "senses", "", "comma separated sense indices, -1 for unassigned")
	cmd.Flags().StringVar(&baseline, "baseline", "first", "baseline assignment: first or random")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "restore and save the score cache snapshot")
	return cmd
}

// parseSenses parses a comma separated assignment of doc.
func parseSenses(doc model.Document, s string) (*configuration.Configuration, error) {
	fields := strings.Split(s, ",")
	if len(fields) != doc.Len() {
		return nil, fmt.Errorf("got %d senses for %d words", len(fields), doc.Len())
	}
	cfg := configuration.New(doc)
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("sense %d: %w", i, err)
		}
		if v == configuration.Unassigned {
			continue
		}
		if err := cfg.SetSense(i, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newTuneCommand(st *state) *cobra.Command {
	var (
		iterations  int
		repetitions int
		nests       int
	)

	cmd := &cobra.Command{
		Use:   "tune [file or directory...]",
		Short: "Tune the parameters of a strategy over a corpus",
		Long: `Searches the parameters of the configured strategy that maximise the
mean score over the corpus. The result is printed and saved to the store
when one is configured.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			docs, err := st.corpus(args)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("repetitions") {
				st.cfg.Tuning.Repetitions = repetitions
			}
			if cmd.Flags().Changed("nests") {
				st.cfg.Tuning.Nests = nests
			}
			search := st.cfg.Tuning.Budget
			if cmd.Flags().Changed("search-iterations") {
				search = stop.Iterations(iterations)
			}

			eng, closeFn, err := st.engine(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := st.applyParameters(eng); err != nil {
				return err
			}
			res, err := eng.Tune(ctx, st.cfg.Kind(), docs, search)
			if err != nil {
				return err
			}
			return st.writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVar(&iterations, "search-iterations", 0, "iterations of the parameter search")
	cmd.Flags().IntVar(&repetitions, "repetitions", 0, "runs per parameter evaluation")
	cmd.Flags().IntVar(&nests, "nests", 0, "parameter sets kept by the search")
	return cmd
}
