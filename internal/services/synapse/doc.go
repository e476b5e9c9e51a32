// Package synapse is the HTTP client for the Synapse knowledge-store API.
// It covers the three operations the delivery pipeline needs: content
// ingestion, multipart file upload, and folder listing. Failures are tagged
// with the services error taxonomy so the sync worker can classify them.
package synapse
