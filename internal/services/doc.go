// Package services holds the shared failure taxonomy for remote delivery and
// the clients that talk to external services.
package services
