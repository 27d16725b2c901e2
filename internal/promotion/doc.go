// Package promotion decides whether a staging artifact may move to
// production and carries out the move.
//
// The validator is a pure predicate over the staging record and staging
// objects. The executor performs the ordered copy/insert/update sequence
// across the two environments, and the verifier runs post-promotion tests
// against the promoted artifact. Workflow chains the three for a single
// artifact and short-circuits on the first failure.
package promotion
