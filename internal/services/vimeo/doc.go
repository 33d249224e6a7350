// Package vimeo implements the bearer-credential search client for the Vimeo
// API surface that supplies raw candidate videos.
package vimeo
