package domain

// ComponentHealth is the result of probing one dependency.
type ComponentHealth struct {
	Healthy   bool   `json:"healthy"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// HealthReport aggregates component probes. Healthy is false when any
// component failed.
type HealthReport struct {
	Healthy    bool                        `json:"healthy"`
	Components map[string]*ComponentHealth `json:"components"`
}
