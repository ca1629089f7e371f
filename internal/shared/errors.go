package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// File system errors
	ErrInputNotFound     = fmt.Errorf("input library not found")
	ErrOutputDirNotFound = fmt.Errorf("output directory not found")
	ErrWriteOutput       = fmt.Errorf("failed to write output library")

	// Library errors
	ErrParse               = fmt.Errorf("failed to parse library")
	ErrInvalidLibrary      = fmt.Errorf("invalid library")
	ErrSerialize           = fmt.Errorf("failed to serialize library")
	ErrPlaylistNotFound    = fmt.Errorf("playlist not found")
	ErrTrackNotFound       = fmt.Errorf("track not found")
	ErrVerificationFailed  = fmt.Errorf("library verification failed")
	ErrConversionNotFound  = fmt.Errorf("conversion not found")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrInvalidPersistentID = fmt.Errorf("invalid persistent ID")

	// Per-record warnings; never abort a conversion
	ErrMissingFields      = fmt.Errorf("track missing expected properties")
	ErrMalformedPlaylists = fmt.Errorf("malformed playlists")
	ErrMalformedTracks    = fmt.Errorf("malformed tracks")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
