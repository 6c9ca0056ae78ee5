package assets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectMime(t *testing.T) {
	t.Parallel()

	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	assert.Equal(t, "image/png", DetectMime("bin", pngHeader))
	assert.Equal(t, "image/svg+xml", DetectMime("svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`)))
	assert.Equal(t, "text/css", DetectMime("css", []byte("body{color:red}")))
	assert.Equal(t, "application/octet-stream", DetectMime("", []byte{0xde, 0xad}))
}

func TestExtensionForMime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jpg", ExtensionForMime("image/jpeg"))
	assert.Equal(t, "css", ExtensionForMime("text/css; charset=utf-8"))
	assert.Equal(t, "woff2", ExtensionForMime("font/woff2"))
	assert.Equal(t, "", ExtensionForMime(""))
}

func TestDataURI(t *testing.T) {
	t.Parallel()

	uri := DataURI("text/plain", []byte("hi"))
	assert.True(t, strings.HasPrefix(uri, "data:text/plain;base64,"))
	assert.Equal(t, "data:text/plain;base64,aGk=", uri)
}
