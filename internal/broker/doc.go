// Package broker contains the message router and the periodic status
// reporter that operate on the shared registry and session state.
package broker
