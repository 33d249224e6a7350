// Package tmdb provides the client for The Movie Database API used to verify
// candidate identity against an authoritative film catalog.
package tmdb
