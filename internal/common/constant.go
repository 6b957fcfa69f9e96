package common

// RequestIDHeaderName is the HTTP header used to propagate the per-request
// correlation id.
const RequestIDHeaderName = "X-Request-ID"
