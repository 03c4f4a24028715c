package transport

import "github.com/taskdeck/backend/domain"

// AuthResponse is the body returned by register and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
}
