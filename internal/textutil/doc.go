// Package textutil provides title normalization and token-based similarity
// used by verification matching.
//
// Fingerprints use term frequency vectors normalized for efficient cosine
// comparison. Title normalization strips leading articles and punctuation so
// "The Maltese Falcon" and "Maltese Falcon (1941) [restored]" compare well.
package textutil
