// Package policy turns raw classifier probabilities into a placement
// decision.
//
// Decide merges Finance into Education, picks the top merged category, and
// then applies the one hand-tuned correction the model needs: small PDF
// documents whose raw Education and Finance scores are nearly tied are
// settled by counting subject keywords in the file name. The override never
// applies to any other category pair.
package policy
