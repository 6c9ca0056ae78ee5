package assets

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleFontURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		font     GoogleFont
		expected string
	}{
		{
			name:     "bare",
			font:     GoogleFont{},
			expected: "https://fonts.googleapis.com/css2",
		},
		{
			name:     "single family",
			font:     GoogleFont{Families: []string{"Roboto"}},
			expected: "https://fonts.googleapis.com/css2?family=Roboto",
		},
		{
			name: "every option",
			font: GoogleFont{
				Families: []string{"Open Sans", "Roboto Mono"},
				Weights:  []uint32{400, 700},
				Text:     "Hello World",
				Display:  "swap",
			},
			expected: "https://fonts.googleapis.com/css2?family=Open+Sans&family=Roboto+Mono&weight=400,700&text=Hello+World&display=swap",
		},
		{
			name:     "reserved characters",
			font:     GoogleFont{Families: []string{" Lato "}, Text: "a&b"},
			expected: "https://fonts.googleapis.com/css2?family=Lato&text=a%26b",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, test.font.URL())
		})
	}
}

func TestGoogleFontURL_ResolvesAsRemote(t *testing.T) {
	t.Parallel()

	font := GoogleFont{Families: []string{"Open Sans"}, Weights: []uint32{300}}
	source, err := NewResolver(t.TempDir(), nil).ResolveSource(font.URL())
	require.NoError(t, err)
	require.True(t, source.IsRemote())
	assert.Equal(t, font.URL(), source.URL)

	parsed, err := url.Parse(source.URL)
	require.NoError(t, err)
	assert.Equal(t, "Open Sans", parsed.Query().Get("family"))
	assert.Equal(t, "300", parsed.Query().Get("weight"))
}
