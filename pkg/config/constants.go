/*
Copyright © 2025 FAYAZ KHAN

constants.go defines the default settings of the finetune CLI.
Update these values to change default behavior across all components.
*/
package config

import "time"

// AppName names the per-user config directory and the binary.
const AppName = "finetune"

// =============================================================================
// REMOTE API
// =============================================================================

const (
	// DefaultBaseURL is the OpenAI REST API root
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultBaseModel is the model fine-tuned when neither --model-name nor
	// OPENAI_BASE_MODEL is set
	DefaultBaseModel = "gpt-4-0613"

	// DefaultRequestTimeout bounds a single request, uploads included
	DefaultRequestTimeout = 5 * time.Minute
)

// Listing
const (
	// DefaultListLimit is the page size for job and event listings
	DefaultListLimit = 10

	// DefaultFileSortField orders --list-files output
	// Options: "bytes", "created_at", "id", "filename"
	DefaultFileSortField = "bytes"

	// DefaultFileSortDirection is "asc" or "desc"
	DefaultFileSortDirection = "asc"
)

// =============================================================================
// ENVIRONMENT
// =============================================================================

const (
	EnvAPIKey    = "OPENAI_API_KEY"
	EnvBaseModel = "OPENAI_BASE_MODEL"
	EnvBaseURL   = "OPENAI_BASE_URL"
	EnvOrgID     = "OPENAI_ORG_ID"
	EnvLogLevel  = "FINETUNE_LOG_LEVEL"
	EnvLogFormat = "FINETUNE_LOG_FORMAT"

	// EnvNoColor follows https://no-color.org: any non-empty value disables colour
	EnvNoColor = "NO_COLOR"

	// DefaultDotEnvFile is loaded from the working directory when present
	DefaultDotEnvFile = ".env"
)

// =============================================================================
// LOGGING
// =============================================================================

const (
	// DefaultLogLevel keeps diagnostics quiet unless something goes wrong
	DefaultLogLevel = "warn"

	// DefaultLogFormat is "console" or "json"
	DefaultLogFormat = "console"
)
