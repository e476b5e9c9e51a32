// Package daemon assembles the delivery pipeline into a single lifecycle
// with flock-based locking to prevent multiple instances mutating the same
// primary store. On start it re-arms the persisted wake alarm and optionally
// drains the queue left over from the previous run.
package daemon
