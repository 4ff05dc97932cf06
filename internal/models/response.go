package models

import (
	"github.com/intrigue/searchforms/internal/executor"
	"github.com/intrigue/searchforms/internal/forms"
	"github.com/intrigue/searchforms/internal/visualization"
)

// HealthResponse represents health check response. Status is "healthy",
// or "degraded" when a visualization failed to load.
type HealthResponse struct {
	Status         string            `json:"status"`
	Timestamp      string            `json:"timestamp"`
	Version        string            `json:"version"`
	Executor       string            `json:"executor"`
	Visualizations map[string]string `json:"visualizations"`
}

// FormListResponse represents list forms response
type FormListResponse struct {
	Forms []forms.Form `json:"forms"`
	Count int          `json:"count"`
}

// AttributeListResponse represents the attribute definitions offered to the editor
type AttributeListResponse struct {
	Executor   string                         `json:"executor"`
	Attributes []executor.AttributeDefinition `json:"attributes"`
}

// VisualizationListResponse represents list visualizations response
type VisualizationListResponse struct {
	Visualizations []visualization.Info `json:"visualizations"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
