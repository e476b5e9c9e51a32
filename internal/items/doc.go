// Package items defines the captured-item model and the durable catalog
// persisting it in the primary store.
package items
