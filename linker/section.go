package linker

import (
	"fmt"
	"strings"
)

// SectionBase is the name every platform-specific asset section is derived from.
const SectionBase = "manganis"

// Platform is an object file family with its own section naming rules.
type Platform int

const (
	PlatformELF Platform = iota
	PlatformMachO
	PlatformPE
	PlatformWasm
	PlatformIllumos
)

// AllPlatforms lists every supported platform family.
var AllPlatforms = []Platform{PlatformELF, PlatformMachO, PlatformPE, PlatformWasm, PlatformIllumos}

// String returns the platform family name.
func (p Platform) String() string {
	switch p {
	case PlatformELF:
		return "elf"
	case PlatformMachO:
		return "macho"
	case PlatformPE:
		return "pe"
	case PlatformWasm:
		return "wasm"
	case PlatformIllumos:
		return "illumos"
	}
	return fmt.Sprintf("platform(%d)", int(p))
}

// PlatformForGOOS returns the object format family used by a Go target operating system.
func PlatformForGOOS(goos string) Platform {
	switch goos {
	case "darwin", "ios":
		return PlatformMachO
	case "windows":
		return PlatformPE
	case "js", "wasip1":
		return PlatformWasm
	case "illumos", "solaris":
		return PlatformIllumos
	default:
		return PlatformELF
	}
}

// Section describes where asset records live in an object file of one platform. Definition is what the compiler is
// told when records are written, Segment and Name are what a parsed object file reports when records are read back.
// Both sides are derived here so they cannot drift apart. StartSymbol names the beginning of the merged section, which
// generated anchors return.
type Section struct {
	Platform    Platform
	Definition  string
	Segment     string
	Name        string
	StartSymbol string
}

// SectionFor returns the asset section of a platform.
func SectionFor(p Platform) Section {
	switch p {
	case PlatformMachO:
		segment, name := "__DATA", "__"+SectionBase
		return Section{
			Platform:    p,
			Definition:  segment + "," + name + ",regular,no_dead_strip",
			Segment:     segment,
			Name:        name,
			StartSymbol: "\x01section$start$" + segment + "$" + name,
		}
	case PlatformPE:
		// The $b group sorts after the $a start marker when the linker merges grouped sections
		return Section{
			Platform:    p,
			Definition:  "." + SectionBase + "$b",
			Name:        "." + SectionBase + "$b",
			StartSymbol: "." + SectionBase + "$a",
		}
	case PlatformIllumos:
		name := "set_" + SectionBase
		return Section{
			Platform:    p,
			Definition:  name,
			Name:        name,
			StartSymbol: "__start_" + name,
		}
	default:
		return Section{
			Platform:    p,
			Definition:  SectionBase,
			Name:        SectionBase,
			StartSymbol: "__start_" + SectionBase,
		}
	}
}

// Matches reports whether a section found in an object file is this asset section. Mach-O sections are qualified by
// segment when one is given. PE matching ignores the $ group suffix, which the linker strips when merging, and accepts
// the 8-byte truncation image section headers are limited to.
func (s Section) Matches(segment string, name string) bool {
	switch s.Platform {
	case PlatformMachO:
		return (segment == "" || segment == s.Segment) && name == s.Name
	case PlatformPE:
		group, _, _ := strings.Cut(s.Name, "$")
		found, _, _ := strings.Cut(name, "$")
		if found == group {
			return true
		}
		return len(found) == 8 && strings.HasPrefix(group, found)
	default:
		return name == s.Name
	}
}
