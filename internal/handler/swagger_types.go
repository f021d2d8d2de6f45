package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// ParseTextRequest is the JSON form of the parse request body.
type ParseTextRequest struct {
	Text string `json:"text" binding:"required" example:"ROSSI MARIO Matricola 004512 MARZO 2023\n01 ME ..."`
}

// --- Response Types ---

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message" example:"operation completed successfully"`
}

// SourceURLResponse carries a presigned download URL for an uploaded source.
type SourceURLResponse struct {
	URL string `json:"url" example:"https://cartellino-timesheets.s3.eu-south-1.amazonaws.com/timesheets/..."`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}
