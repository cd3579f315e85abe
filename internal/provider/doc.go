// Package provider defines the contract with the remote translation service
// and a retrying client that transparently handles rate-limit and timeout
// signals with exponential backoff, distinguishing retryable from fatal
// failures.
package provider
