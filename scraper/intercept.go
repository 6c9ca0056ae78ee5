package scraper

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WorkingDirMarker prefixes the argument that tells the intercept which directory relative object paths are
// relative to. It is passed through -extldflags and never forwarded to the real linker.
const WorkingDirMarker = "manganis-working-dir;"

// objectExtensions are the argument suffixes treated as object files or archives that may carry asset records.
var objectExtensions = []string{".o", ".obj", ".a", ".rlib", ".lib"}

// Intercept is a parsed linker invocation.
type Intercept struct {
	// WorkingDir is the directory relative object paths are resolved against.
	WorkingDir string
	// ObjectFiles are the absolute paths of the object files and archives being linked.
	ObjectFiles []string
	// ForwardArgs are the arguments to pass to the real linker.
	ForwardArgs []string
}

// ParseLinkerArgs parses the arguments of a linker invocation running in cwd. Response files ("@path") are expanded.
// A response file that carried the working directory marker is forwarded expanded, without the marker.
func ParseLinkerArgs(args []string, cwd string) (*Intercept, error) {
	intercept := &Intercept{WorkingDir: cwd, ForwardArgs: make([]string, 0, len(args))}

	var candidates []string
	for _, arg := range args {
		expanded := []string{arg}
		fromFile := false
		if strings.HasPrefix(arg, "@") && len(arg) > 1 {
			path := arg[1:]
			if !filepath.IsAbs(path) {
				path = filepath.Join(cwd, path)
			}
			fileArgs, err := ReadResponseFile(path)
			if err != nil {
				return nil, err
			}
			expanded, fromFile = fileArgs, true
		}

		markerFound := false
		var kept []string
		for _, a := range expanded {
			if dir, ok := strings.CutPrefix(a, WorkingDirMarker); ok {
				intercept.WorkingDir = dir
				markerFound = true
				continue
			}
			kept = append(kept, a)
			if isObjectFile(a) {
				candidates = append(candidates, a)
			}
		}

		switch {
		case fromFile && !markerFound:
			intercept.ForwardArgs = append(intercept.ForwardArgs, arg)
		default:
			intercept.ForwardArgs = append(intercept.ForwardArgs, kept...)
		}
	}

	// Resolve relative paths only once the marker, wherever it appeared, is known
	for _, candidate := range candidates {
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(intercept.WorkingDir, candidate)
		}
		intercept.ObjectFiles = append(intercept.ObjectFiles, filepath.Clean(candidate))
	}
	return intercept, nil
}

// isObjectFile reports whether a linker argument names an object file or archive.
func isObjectFile(arg string) bool {
	if strings.HasPrefix(arg, "-") {
		return false
	}
	lower := strings.ToLower(arg)
	for _, ext := range objectExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ReadResponseFile reads a linker response file. Files written by MSVC-style tools are UTF-16LE, with or without a
// byte order mark; everything else is read as UTF-8.
func ReadResponseFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read response file: %w", err)
	}
	text, err := decodeResponseFile(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response file %s: %w", path, err)
	}
	return SplitResponseFile(text), nil
}

// decodeResponseFile converts the contents of a response file to a string.
func decodeResponseFile(raw []byte) (string, error) {
	if isUTF16LE(raw) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		decoded, _, err := transform.Bytes(decoder, raw)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	}
	return string(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))), nil
}

// isUTF16LE detects UTF-16LE text from its byte order mark, or from ASCII text interleaved with zero bytes.
func isUTF16LE(raw []byte) bool {
	if bytes.HasPrefix(raw, []byte{0xff, 0xfe}) {
		return true
	}
	if len(raw) < 2 || len(raw)%2 != 0 {
		return false
	}
	sample := raw
	if len(sample) > 64 {
		sample = sample[:64]
	}
	for i := 0; i < len(sample); i += 2 {
		if sample[i] == 0 || sample[i+1] != 0 {
			return false
		}
	}
	return true
}

// SplitResponseFile splits response file text into arguments. Arguments are separated by whitespace, and single
// quotes, double quotes and backslash escapes group characters the way GCC reads response files.
func SplitResponseFile(text string) []string {
	var args []string
	var current strings.Builder
	inArg := false
	var quote rune
	escaped := false

	for _, r := range text {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		args = append(args, current.String())
	}
	return args
}
