package models

// SendResult is the outcome of a single send attempt. Exactly one of
// Message or Error is populated depending on Success.
type SendResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Email     string `json:"email,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Details   string `json:"details,omitempty"`

	// Skipped is set by the dashboard client when it elects not to call
	// the service because the last health check marked it unavailable.
	// The service itself never sets it.
	Skipped bool `json:"skipped,omitempty"`
}

// HealthStatus is the document returned by the health endpoint.
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}
