// Package classify decides whether discovered candidates are genuine classic
// feature films. Judgments come from an LLM oracle when one is configured and
// from a neutral heuristic otherwise; survivors are filtered by membership and
// relevance before verification.
package classify
