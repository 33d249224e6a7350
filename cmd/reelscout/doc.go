// Command reelscout discovers classic films on Vimeo, classifies and verifies
// the candidates, and emits a ranked dataset.
package main
