// Package types provides common type definitions for the account statistics system.
package types

// Period represents the aggregation window of a statistics record
type Period string

const (
	// PeriodDaily represents one calendar day in the account's local timezone
	PeriodDaily Period = "daily"
	// PeriodWeekly represents one Monday-to-Sunday week
	PeriodWeekly Period = "weekly"
)

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
