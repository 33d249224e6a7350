// Package pipeline orchestrates the discovery, classification, verification,
// and ranking stages into a single run with bounded concurrency and
// deterministic merge order.
package pipeline
