// Package registry keeps the last known address and status of each station.
package registry
