package declare

import "fmt"

// SupportErrorKind classifies a SupportError.
type SupportErrorKind int

const (
	// ExternalPackageUnsupported reports an asset declared by a dependency while no tool collects assets.
	ExternalPackageUnsupported SupportErrorKind = iota
)

// String returns the name of the kind.
func (k SupportErrorKind) String() string {
	switch k {
	case ExternalPackageUnsupported:
		return "external package unsupported"
	}
	return fmt.Sprintf("SupportErrorKind(%d)", int(k))
}

// SupportError reports a declaration that needs asset support the build does not have. It is recoverable: Fallback
// holds a best-effort served location the application can use instead.
type SupportError struct {
	Kind     SupportErrorKind
	Package  string
	Source   string
	Fallback string
}

// Error implements the error interface.
func (e *SupportError) Error() string {
	switch e.Kind {
	case ExternalPackageUnsupported:
		return fmt.Sprintf("asset %s of dependency '%s' cannot be served without asset support (set %s by building through manganis); falling back to '%s'",
			e.Source, e.Package, "MANGANIS_SUPPORT", e.Fallback)
	}
	return fmt.Sprintf("%s: asset %s of '%s'", e.Kind, e.Source, e.Package)
}
