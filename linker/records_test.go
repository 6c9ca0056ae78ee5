package linker

import (
	"strings"
	"testing"

	"github.com/crytic/manganis/assets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mixedRecords returns one record of every asset kind.
func mixedRecords() []assets.AssetType {
	return []assets.AssetType{
		assets.NewFile(assets.FileAsset{
			Location: assets.Location{Source: assets.LocalSource("/app/logo.png"), UniqueName: "logo0123456789abcdef.webp"},
			Options: assets.NewImageOptions(assets.ImageOptions{
				Format: assets.ImageWebp,
				Size:   &assets.ImageSize{Width: 52, Height: 52},
			}),
		}),
		assets.NewFolder(assets.FolderAsset{
			Location: assets.Location{Source: assets.LocalSource("/app/static"), UniqueName: "static0123456789abcdef"},
		}),
		assets.NewTailwind("flex flex-col"),
		assets.NewMetadata("title", "Hello \"world\" ✓"),
		assets.NewFile(assets.FileAsset{
			Location:   assets.Location{Source: assets.RemoteSource("https://example.com/a.css"), UniqueName: "a0123456789abcdef.css"},
			Options:    assets.NewCssOptions(assets.CssOptions{Minify: true}),
			UrlEncoded: true,
		}),
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	t.Parallel()

	all := mixedRecords()
	for _, n := range []int{0, 1, len(all)} {
		encoded, err := EncodeRecords(all[:n])
		require.NoError(t, err)

		decoded, err := DecodeRecords(encoded)
		require.NoError(t, err)
		require.Len(t, decoded, n)
		for i := range decoded {
			assert.Equal(t, all[i], decoded[i], "record %d of %d", i, n)
		}
	}
}

func TestDecodeRecords_ToleratesPadding(t *testing.T) {
	t.Parallel()

	all := mixedRecords()
	var raw []byte
	// A stray leading control byte and zero padding between blobs
	raw = append(raw, 0x01)
	for _, record := range all {
		encoded, err := EncodeRecord(record)
		require.NoError(t, err)
		raw = append(raw, encoded...)
		raw = append(raw, 0, 0, 0)
	}
	raw = append(raw, []byte("\n  \x00\x7f")...)

	decoded, err := DecodeRecords(raw)
	require.NoError(t, err)
	assert.Equal(t, all, decoded)
}

func TestDecodeRecords_TrailingGarbage(t *testing.T) {
	t.Parallel()

	encoded, err := EncodeRecords(mixedRecords()[:2])
	require.NoError(t, err)

	decoded, err := DecodeRecords(append(encoded, []byte("garbage")...))
	require.NoError(t, err)
	assert.Len(t, decoded, 2)
}

func TestDecodeRecords_Malformed(t *testing.T) {
	t.Parallel()

	encoded, err := EncodeRecords(mixedRecords()[:1])
	require.NoError(t, err)

	// A truncated second record is a hard error
	truncated := append(encoded, encoded[:len(encoded)/2]...)
	_, err = DecodeRecords(truncated)
	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, len(encoded), malformed.Offset)

	// So is a record that parses but describes nothing
	_, err = DecodeRecords([]byte(`{"kind":"file"}`))
	require.ErrorAs(t, err, &malformed)
}

func TestDecodeRecords_Empty(t *testing.T) {
	t.Parallel()

	decoded, err := DecodeRecords(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)

	decoded, err = DecodeRecords([]byte(strings.Repeat("\x00", 64)))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}
