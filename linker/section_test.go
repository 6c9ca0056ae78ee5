package linker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionFor_WriteAndReadAgree(t *testing.T) {
	t.Parallel()

	for _, platform := range AllPlatforms {
		section := SectionFor(platform)

		// The name the compiler is told must be recoverable by the matcher
		definition := section.Definition
		segment := ""
		if platform == PlatformMachO {
			parts := strings.Split(definition, ",")
			segment, definition = parts[0], parts[1]
		}
		assert.True(t, section.Matches(segment, definition), "platform %s", platform)
		assert.Contains(t, section.Name, SectionBase)
	}
}

func TestSectionFor_Names(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "manganis", SectionFor(PlatformELF).Name)
	assert.Equal(t, "manganis", SectionFor(PlatformWasm).Name)
	assert.Equal(t, "set_manganis", SectionFor(PlatformIllumos).Name)

	macho := SectionFor(PlatformMachO)
	assert.Equal(t, "__DATA", macho.Segment)
	assert.Equal(t, "__manganis", macho.Name)
	assert.True(t, strings.HasPrefix(macho.Definition, "__DATA,__manganis"))
	assert.LessOrEqual(t, len(macho.Name), 16, "Mach-O section names are limited to 16 bytes")

	pe := SectionFor(PlatformPE)
	assert.Equal(t, ".manganis$b", pe.Definition)
	assert.Equal(t, ".manganis$a", pe.StartSymbol)
}

func TestSectionMatches(t *testing.T) {
	t.Parallel()

	macho := SectionFor(PlatformMachO)
	assert.True(t, macho.Matches("__DATA", "__manganis"))
	assert.False(t, macho.Matches("__TEXT", "__manganis"))
	assert.False(t, macho.Matches("__DATA", "manganis"))

	pe := SectionFor(PlatformPE)
	assert.True(t, pe.Matches("", ".manganis$b"))
	assert.True(t, pe.Matches("", ".manganis"))
	assert.True(t, pe.Matches("", ".mangani"))
	assert.False(t, pe.Matches("", ".text"))

	elf := SectionFor(PlatformELF)
	assert.True(t, elf.Matches("", "manganis"))
	assert.False(t, elf.Matches("", "__manganis"))
}

func TestPlatformForGOOS(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PlatformMachO, PlatformForGOOS("darwin"))
	assert.Equal(t, PlatformMachO, PlatformForGOOS("ios"))
	assert.Equal(t, PlatformPE, PlatformForGOOS("windows"))
	assert.Equal(t, PlatformWasm, PlatformForGOOS("wasip1"))
	assert.Equal(t, PlatformIllumos, PlatformForGOOS("illumos"))
	assert.Equal(t, PlatformELF, PlatformForGOOS("linux"))
	assert.Equal(t, PlatformELF, PlatformForGOOS("freebsd"))
}
