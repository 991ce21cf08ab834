// Package credential loads the static station-to-secret mapping used to
// authenticate clients.
package credential
