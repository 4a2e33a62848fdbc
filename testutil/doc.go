// Package testutil provides testing utilities for sensego.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random documents, deterministic
// similarity oracles, and brute-force reference optima.
//
// # Random Documents
//
//	rng := testutil.NewRNG(seed)
//	doc := rng.Document("doc", 12, 1, 4) // 12 words, 1..4 senses each
//
// # Deterministic Oracles
//
//	m := rng.Matrix(doc)                  // random symmetric similarities
//	counting := testutil.Count(m)         // counts oracle calls
//
// # Reference Optimum
//
//	best, score, err := testutil.BruteForce(ctx, doc, m)
package testutil
