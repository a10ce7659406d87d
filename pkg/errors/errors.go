// Package errors defines the error taxonomy shared by the euets packages.
// Callers classify failures with errors.Is against the sentinels below.
package errors

import "fmt"

// Common error types.
var (
	// Transport errors. Fatal to the enclosing fetch or transfer; never
	// retried internally. ErrUnexpectedStatus wraps ErrTransport so both
	// classify as transport failures.
	ErrTransport        = fmt.Errorf("transport error")
	ErrUnexpectedStatus = fmt.Errorf("%w: unexpected status code", ErrTransport)

	// Catalog errors.
	ErrNoArchiveLink        = fmt.Errorf("dataset has no archive download link")
	ErrDownloadLinkNotFound = fmt.Errorf("could not find download link on page")
	ErrDatasetNotFound      = fmt.Errorf("dataset not found in catalog")

	// Archive errors.
	ErrArchiveRead = fmt.Errorf("failed to read archive")

	// Destination errors.
	ErrUnsupportedScheme = fmt.Errorf("unsupported destination scheme")
	ErrDestination       = fmt.Errorf("destination not writable")

	// Series key script errors.
	ErrSeriesScript = fmt.Errorf("series key script error")

	// Config errors.
	ErrEmptyConfigPath  = fmt.Errorf("config file path cannot be empty")
	ErrConfigParse      = fmt.Errorf("failed to parse config")
	ErrConfigValidation = fmt.Errorf("invalid configuration")
	ErrConfigEncode     = fmt.Errorf("failed to encode config")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
