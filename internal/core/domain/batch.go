package domain

// BatchResult summarises one batch ingestion run
type BatchResult struct {
	// Processed counts files whose pipeline run completed
	Processed int `json:"processed"`

	// Failed counts files whose pipeline run failed
	Failed int `json:"failed"`

	// Failures maps failed file paths to a short reason. Stage-level
	// detail lives in the processing log.
	Failures map[string]string `json:"failures,omitempty"`
}
