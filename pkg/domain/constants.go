package domain

import "time"

const (
	// FinalResourceName is the name of the unique root resource of every dialogue.
	FinalResourceName = "Final"

	// DefaultExpiration is how long a persisted dialogue stays resumable.
	DefaultExpiration = 30 * time.Minute
)

// Field constants for mapstructure and JSON standardization.
const (
	KeyResources        = "resources"
	KeyDynamicResources = "dynamic_resources"
	KeyExpiration       = "expiration_seconds"
	KeyModifiedAt       = "modified_at"
	KeyExtras           = "extras"
)
