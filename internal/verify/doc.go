// Package verify matches classified candidates against the TMDB catalog and
// scores match confidence from title similarity, release era, production
// studio, and runtime agreement.
package verify
