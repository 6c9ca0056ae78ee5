package assets

import "fmt"

// ResolutionErrorKind classifies why an asset reference could not be resolved.
type ResolutionErrorKind int

const (
	// ErrNotFoundRelative means a relative path does not exist below the package manifest directory.
	ErrNotFoundRelative ResolutionErrorKind = iota
	// ErrNotFound means an absolute path does not exist.
	ErrNotFound
	// ErrNotFile means a file was expected but the path is a directory.
	ErrNotFile
	// ErrNotFolder means a folder was expected but the path is a file or a URL.
	ErrNotFolder
	// ErrIO is any other filesystem failure.
	ErrIO
	// ErrInvalidInput means the reference is empty or is a URL with an unsupported scheme.
	ErrInvalidInput
)

// ResolutionError reports a reference that could not be turned into a Source. It carries the raw input, the path it
// was resolved to and the manifest directory relative paths are resolved against.
type ResolutionError struct {
	Kind        ResolutionErrorKind
	Input       string
	Resolved    string
	ManifestDir string
	Err         error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	switch e.Kind {
	case ErrNotFoundRelative:
		return fmt.Sprintf("asset '%s' was not found at '%s'. Relative asset paths are resolved against the package "+
			"manifest directory '%s', not the current working directory", e.Input, e.Resolved, e.ManifestDir)
	case ErrNotFound:
		return fmt.Sprintf("asset '%s' does not exist", e.Input)
	case ErrNotFile:
		return fmt.Sprintf("asset '%s' (resolved to '%s') is a folder, expected a file", e.Input, e.Resolved)
	case ErrNotFolder:
		return fmt.Sprintf("asset '%s' (resolved to '%s') is not a folder", e.Input, e.Resolved)
	case ErrInvalidInput:
		if e.Err != nil {
			return fmt.Sprintf("invalid asset reference '%s': %v", e.Input, e.Err)
		}
		return fmt.Sprintf("invalid asset reference '%s'", e.Input)
	default:
		return fmt.Sprintf("failed to read asset '%s' (resolved to '%s'): %v", e.Input, e.Resolved, e.Err)
	}
}

// Unwrap returns the underlying filesystem error, if any.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}
