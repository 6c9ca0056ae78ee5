package assets

import (
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const (
	// MaxUniqueNameLength caps the length of every unique name, extension included.
	MaxUniqueNameLength = 128

	// HashSuffixLength is the width of the hexadecimal hash embedded in every unique name.
	HashSuffixLength = 16

	// FreshnessUnknown is hashed in place of a freshness signal when none is available.
	FreshnessUnknown = "unknown"
)

// ComputeUniqueName derives the name a processed file is written under. The name is an alphanumeric stem of the
// source's last segment, a 64-bit hash of (source, freshness, options, toolVersion) and the extension implied by the
// options. Only the stem is truncated to respect MaxUniqueNameLength.
func ComputeUniqueName(source Source, options Options, freshness string, toolVersion string) string {
	h := xxhash.New()
	writeHashField(h, "source", string(source.Kind)+":"+source.String())
	writeHashField(h, "freshness", freshness)
	writeHashField(h, "options", options.Canonical())
	writeHashField(h, "tool", toolVersion)

	return composeUniqueName(source.LastSegment(), h.Sum64(), options.Extension())
}

// composeUniqueName joins a normalized stem, the hash and an extension while keeping the result within
// MaxUniqueNameLength.
func composeUniqueName(segment string, sum uint64, extension string) string {
	suffix := fmt.Sprintf("%0*x", HashSuffixLength, sum)

	dotted := ""
	if extension != "" {
		dotted = "." + extension
	}
	// A pathological extension is the only thing that can crowd out the hash
	if len(suffix)+len(dotted) > MaxUniqueNameLength {
		dotted = dotted[:MaxUniqueNameLength-len(suffix)]
	}

	stem := normalizeStem(strings.TrimSuffix(segment, path.Ext(segment)))
	if budget := MaxUniqueNameLength - len(suffix) - len(dotted); len(stem) > budget {
		stem = stem[:budget]
	}
	return stem + suffix + dotted
}

// normalizeStem keeps only ASCII letters and digits.
func normalizeStem(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// writeHashField writes a length-prefixed, tagged field so adjacent fields can never run into each other.
func writeHashField(w io.Writer, tag string, value string) {
	_, _ = io.WriteString(w, tag)
	_, _ = io.WriteString(w, ":")
	_, _ = io.WriteString(w, strconv.Itoa(len(value)))
	_, _ = io.WriteString(w, ":")
	_, _ = io.WriteString(w, value)
}
