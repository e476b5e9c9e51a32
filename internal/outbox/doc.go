// Package outbox persists the ordered queue of pending delivery tasks. The
// queue is the source of truth for what still needs to reach the remote
// knowledge store; every mutation rewrites the sorted queue and re-arms the
// wake alarm to match the new head.
package outbox
