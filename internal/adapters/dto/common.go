package dto

import "github.com/eci4ever/bizadmin/internal/domain"

// MessageResponse acknowledges a delete.
type MessageResponse struct {
	Message string `json:"message"`
}

// RootUser is the identity summary returned by GET /api/.
type RootUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// RootResponse is the body of GET /api/.
type RootResponse struct {
	Name string    `json:"name"`
	User *RootUser `json:"user,omitempty"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status     string                             `json:"status"`
	Components map[string]*domain.ComponentHealth `json:"components,omitempty"`
}

// OKResponse is the body of GET /api/auth/ok.
type OKResponse struct {
	OK bool `json:"ok"`
}
