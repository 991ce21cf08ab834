// Package protocol implements parsing and serialization of the
// semicolon-separated text wire format exchanged with stations and clients.
package protocol
