// Package notifications delivers sync milestones via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-category switches let users keep failure alerts while muting
// routine sync chatter.
package notifications
