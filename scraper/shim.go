package scraper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ShimOptions configures the linker shim handed to the go toolchain as its external linker.
type ShimOptions struct {
	// Dir receives the shim.
	Dir string
	// Executable is the manganis binary the shim invokes.
	Executable string
	// GOOS selects a batch file on windows and a shell script elsewhere.
	GOOS string
	// Linker is the real linker the intercept forwards to.
	Linker string
	// ManifestPath receives the scraped asset manifest.
	ManifestPath string
}

// WriteLinkerShim writes an executable script that runs "<executable> link" with the shim's settings followed by the
// arguments the toolchain passed. Each shim gets a unique name so that concurrent builds do not overwrite each other.
func WriteLinkerShim(opts ShimOptions) (string, error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return "", err
	}

	name := "manganis-link-" + uuid.NewString()
	var contents string
	if opts.GOOS == "windows" {
		name += ".bat"
		contents = fmt.Sprintf("@echo off\r\n%s link --linker %s --output %s -- %%*\r\n",
			batchQuote(opts.Executable), batchQuote(opts.Linker), batchQuote(opts.ManifestPath))
	} else {
		name += ".sh"
		contents = fmt.Sprintf("#!/bin/sh\nexec %s link --linker %s --output %s -- \"$@\"\n",
			shellQuote(opts.Executable), shellQuote(opts.Linker), shellQuote(opts.ManifestPath))
	}

	path := filepath.Join(opts.Dir, name)
	if err := os.WriteFile(path, []byte(contents), 0755); err != nil {
		return "", err
	}
	return path, nil
}

// shellQuote quotes s for a POSIX shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// batchQuote quotes s for cmd.exe.
func batchQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
