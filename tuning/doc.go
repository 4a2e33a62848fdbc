// Package tuning searches the parameter space of the disambiguation
// strategies.
//
// A Parameters value is a point in one strategy's parameter space made of
// bounded ScalarParameters. An Evaluator scores it by running several
// independent repetitions of the strategy over a corpus in parallel, each
// with its own scorer and stop condition. Search explores the space with a
// cuckoo search whose Lévy flights move all scalars at once, and returns a
// Result that can be persisted to a blobstore.
package tuning
