package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildLdflags(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"-linkmode=external -extld=/tmp/shim.sh -extldflags=manganis-working-dir;/src/app",
		buildLdflags("/tmp/shim.sh", "/src/app"))

	// Paths with spaces are quoted as a whole field
	assert.Equal(t,
		"-linkmode=external '-extld=/tmp/my shim.sh' '-extldflags=manganis-working-dir;/src/my app'",
		buildLdflags("/tmp/my shim.sh", "/src/my app"))

	assert.Equal(t, `"-extld=/tmp/it's here"`, quoteLdflag("-extld=/tmp/it's here"))
}
