// Package server implements the UDP listener and the HTTP monitoring API.
package server
