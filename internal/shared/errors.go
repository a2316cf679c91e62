package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrMissingScope     = fmt.Errorf("missing required scope")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Environment errors
	ErrUnsupportedPlatform = fmt.Errorf("unsupported platform")

	// API and service errors
	ErrAPIRequest           = fmt.Errorf("API request failed")
	ErrServiceUnavailable   = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound     = fmt.Errorf("playlist not found")
	ErrPlaylistNotEditable  = fmt.Errorf("playlist is not editable")
	ErrPaginationLimit      = fmt.Errorf("pagination limit exceeded")
	ErrBatchFailed          = fmt.Errorf("batch failed")
	ErrUnsupportedUndoStore = fmt.Errorf("unsupported undo backend")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
