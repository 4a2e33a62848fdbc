// Package model defines the read-only document types the disambiguation core
// consumes.
//
// # Types
//
//   - Symbol: one weighted element of a semantic signature
//   - Signature: weighted multiset of symbols describing a sense
//   - Sense: candidate meaning with an identifier and a signature
//   - Word: a document position with its ordered candidate senses
//   - Document: read-only iteration over word slots
//
// Documents are produced by external loaders (dictionaries, corpora).
// The core never mutates sense content; it only reads signatures.
//
//	doc := model.NewDocument("d001",
//	    model.Word{ID: "w1", Lemma: "bank", Senses: []model.Sense{
//	        {ID: "bank%1", Signature: model.SignatureOf("money", "deposit")},
//	        {ID: "bank%2", Signature: model.SignatureOf("river", "slope")},
//	    }},
//	)
package model
