// Package api exposes the daemon's operations behind a single QueueService
// facade with transport-friendly DTOs. The IPC server and CLI both drive the
// daemon exclusively through this package.
package api
