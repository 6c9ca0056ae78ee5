package linker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCSource(t *testing.T) {
	t.Parallel()

	records := mixedRecords()[:2]
	source, err := GenerateCSource(records, "github.com/acme/lib-a")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(source, "// "+GeneratedHeader))
	for _, platform := range AllPlatforms {
		assert.Contains(t, source, `"`+SectionFor(platform).Definition+`"`, "platform %s", platform)
	}
	assert.Contains(t, source, "const unsigned char manganis_github_com_acme_lib_a_0[")
	assert.Contains(t, source, "const unsigned char manganis_github_com_acme_lib_a_1[")
	assert.Contains(t, source, "const void *"+AnchorFunction("github.com/acme/lib-a")+"(void)")

	// The first byte of every blob opens a JSON object
	assert.Equal(t, 2, strings.Count(source, "{\n\t0x7b,"))

	// Blobs keep declaration order under optimization
	assert.Contains(t, source, "#if __has_attribute(no_reorder)\n#define MANGANIS_NO_REORDER no_reorder,")
	assert.Equal(t, 2, strings.Count(source, "__attribute__((MANGANIS_RETAIN MANGANIS_NO_REORDER used, aligned(1), section(MANGANIS_SECTION)))"))

	// The anchor returns the start of the section on every platform
	assert.Contains(t, source, `__asm("__start_manganis") __attribute__((weak));`)
	assert.Contains(t, source, `__asm("__start_set_manganis") __attribute__((weak));`)
	assert.Contains(t, source, `__asm("section$start$__DATA$__manganis") __attribute__((weak));`)
	assert.Contains(t, source, `__attribute__((used, section(".manganis$a"))) static const unsigned char manganis_github_com_acme_lib_a_start[1] = {0};`)
	assert.Contains(t, source, "\treturn manganis_github_com_acme_lib_a_start ? (const void *)manganis_github_com_acme_lib_a_start : (const void *)manganis_github_com_acme_lib_a_0;")
	assert.NotContains(t, source, "\x01")
}

func TestGenerateCSource_NoRecords(t *testing.T) {
	t.Parallel()

	source, err := GenerateCSource(nil, "")
	require.NoError(t, err)
	assert.Contains(t, source, "manganis_pkg_anchor(void) {\n\treturn 0;")
	assert.NotContains(t, source, "manganis_pkg_start")
}
