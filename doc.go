// Package sensego assigns to every ambiguous word of a document the index
// of its most plausible sense.
//
// A document is a sequence of words, each with zero or more senses, and
// each sense carries a signature of symbols. The score of a configuration
// (one sense per word) is the sum of the similarities of every pair of
// chosen senses. sensego searches for high-scoring configurations with
// metaheuristics that share one memoising parallel scorer.
//
// # Quick Start
//
//	eng, _ := sensego.New(similarity.NewOverlap(),
//	    sensego.WithStrategy(strategy.Genetic),
//	    sensego.WithBudget(stop.Iterations(200)),
//	)
//	defer eng.Close()
//
//	res, _ := eng.Disambiguate(ctx, doc)
//	fmt.Println(res.Senses, res.Score)
//
// # Strategies
//
// Four strategies implement strategy.Disambiguator:
//
//   - genetic: tournament selection, crossover, mutation and elitism over
//     a population of configurations.
//   - aca: an ant colony moving over a graph of words and senses, where
//     energy accumulates on the senses that fit their context.
//   - cuckoo: Lévy flights from random nests, abandoning the worst.
//   - bat: frequency-driven moves towards the best with loudness and
//     pulse rate control.
//
// Runs are bounded by a stop.Budget of iterations, wall-clock time or both.
//
// # Tuning
//
// Engine.Tune searches the parameters of a strategy over a corpus with a
// cuckoo search over parameter sets. Results are kept by the engine and,
// with WithStore, saved to a blobstore.Store.
//
// # Persistence
//
// Scores computed by the similarity measure are cached per document. With
// WithStore the cache of a document can be saved and restored as a
// compressed snapshot (see score.Snapshot):
//
//	eng, _ := sensego.New(measure, sensego.WithStore(blobstore.NewLocalStore("./cache")))
//	_ = eng.LoadScores(ctx, doc)
//	res, _ := eng.Disambiguate(ctx, doc)
//	_ = eng.SaveScores(ctx, doc)
//
// # Observability
//
// Logging uses log/slog through Logger. Metrics are reported to a
// MetricsCollector; PrometheusCollector exports them with
// prometheus/client_golang.
package sensego
