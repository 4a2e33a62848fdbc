// Package similarity defines the similarity oracle consumed by the scorer
// and the ant-colony strategy, plus a few built-in measures.
//
// A Measure must be pure and deterministic from the caller's point of view:
// the scorer caches every computed pair and never recomputes it.
//
// # Built-in Measures
//
//   - Overlap: Lesk-style count of shared symbols (roaring bitmaps)
//   - Tversky: asymmetric set similarity over shared/distinct symbols
//   - WeightedCosine: cosine over summed symbol weights
//
// # Throttling
//
// Remote or embedding-backed measures can be wrapped with Throttled to bound
// the request rate and the number of in-flight calls.
package similarity
