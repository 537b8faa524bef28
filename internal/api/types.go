package api

// StatusResponse is returned by the root endpoint
type StatusResponse struct {
	Message string `json:"message"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status            string `json:"status"`
	ActiveConnections int    `json:"active_connections"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
