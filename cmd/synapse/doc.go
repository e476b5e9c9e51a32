// Command synapse is the CLI for the synapse capture delivery daemon. It
// talks to a running synapsed instance over its unix socket to capture
// content, inspect the outbox, and manage configuration.
package main
