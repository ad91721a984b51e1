// Package features turns file metadata into the fixed-schema numeric vectors
// the classifier consumes.
//
// The Schema is the contract with a trained model: the ordered list of field
// names and the extension code table captured at training time. It is loaded
// alongside the model and never changes during a run. The Extractor computes
// every derived feature it knows about, then projects the result onto the
// schema: fields the schema names but the extractor does not produce are 0,
// fields the extractor produces but the schema omits are dropped.
//
// Keyword and extension tables in catalog.go are static domain priors, not
// learned values. Changing them requires retraining against a new schema
// version.
package features
