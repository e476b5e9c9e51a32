// Package storage provides the two storage tiers behind the capture client:
// a durable, quota-limited key-value primary store on SQLite, and a volatile
// in-memory overflow tier for oversized payloads.
package storage
