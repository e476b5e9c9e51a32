// Package syncer drains the outbox queue against the remote knowledge store,
// classifying failures as retryable or terminal and applying capped
// exponential backoff between attempts.
package syncer
