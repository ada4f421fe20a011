// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// MongoConnect caps the wait time when establishing the MongoDB connection.
const MongoConnect = 5 * time.Second

// MongoRequest caps the time allowed for a single MongoDB operation.
const MongoRequest = 5 * time.Second

// HubRequest caps the time allowed for a WebSub hub subscribe call.
const HubRequest = 10 * time.Second

// DataAPIRequest caps the time allowed for one YouTube Data API call.
const DataAPIRequest = 15 * time.Second

// ChatRequest caps the time allowed for one chatbot query end to end,
// including tool-call rounds against the model provider.
const ChatRequest = 60 * time.Second
