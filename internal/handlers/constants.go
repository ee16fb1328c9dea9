package handlers

const (
	RequestIDHeader = "X-Request-ID"

	ErrInvalidJSON         = "Invalid JSON body"
	ErrNotAuthenticated    = "Not authenticated"
	ErrAdminRequired       = "Admin privileges required"
	ErrInternalServerError = "Internal server error"
)
