// Package app holds the state of one browsing session and the controller
// that applies user actions and page loads to it.
//
// State is a plain value. Every transition returns a new State, and the
// Controller swaps whole values under its lock, so a Snapshot is always
// consistent with itself.
package app
