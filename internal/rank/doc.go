// Package rank computes final candidate scores from classification relevance,
// catalog confidence, and popularity, and orders the result set
// deterministically.
package rank
