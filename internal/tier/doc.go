// Package tier places captured payloads across the durable primary store and
// the volatile overflow store, reconstructs full content on read, and falls
// back to placeholder records when the primary store runs out of quota.
package tier
