// Package session tracks authenticated client sessions and evicts stale
// ones in the background.
package session
