package config

import (
	"os"
	"sync"
)

// SupportEnv is set to "true" while a build runs under a tool that collects and materializes assets.
const SupportEnv = "MANGANIS_SUPPORT"

// PrimaryDirEnv names the directory of the project being built. Packages outside of it are dependencies.
const PrimaryDirEnv = "MANGANIS_PRIMARY_DIR"

// SupportGuard marks the process environment as supporting assets for as long as it is held. Child processes, such as
// the go toolchain running declaration steps, inherit the marker.
type SupportGuard struct {
	previous    string
	hadPrevious bool
	once        sync.Once
}

// NewSupportGuard sets the support marker. Release must be called to restore the environment.
func NewSupportGuard() *SupportGuard {
	previous, ok := os.LookupEnv(SupportEnv)
	_ = os.Setenv(SupportEnv, "true")
	return &SupportGuard{previous: previous, hadPrevious: ok}
}

// Release restores the marker to its state before the guard was created. Releasing twice is a no-op.
func (g *SupportGuard) Release() {
	g.once.Do(func() {
		if g.hadPrevious {
			_ = os.Setenv(SupportEnv, g.previous)
		} else {
			_ = os.Unsetenv(SupportEnv)
		}
	})
}

// SupportEnabled reports whether the support marker is set.
func SupportEnabled() bool {
	return os.Getenv(SupportEnv) == "true"
}
