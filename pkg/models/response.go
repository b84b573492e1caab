package models

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TemplateSummary is the listing form of a registry entry
type TemplateSummary struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category,omitempty"`
	Columns     int         `json:"columns"`
	HeaderStyle HeaderStyle `json:"header_style"`
}

// TemplateListResponse is returned by the template listing endpoint
type TemplateListResponse struct {
	Templates []TemplateSummary `json:"templates"`
	Count     int               `json:"count"`
}
