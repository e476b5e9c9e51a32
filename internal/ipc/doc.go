// Package ipc provides JSON-RPC over a Unix domain socket between the
// synapse CLI and the synapsed daemon. The server is a thin adapter over the
// api.QueueService facade; all request and response types are plain structs
// safe to evolve with additive fields.
package ipc
