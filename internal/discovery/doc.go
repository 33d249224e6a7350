// Package discovery fetches raw search hits, derives canonical candidate
// identifiers, pre-filters obvious non-movies, and deduplicates candidates
// across queries while preserving first-seen ordering.
package discovery
