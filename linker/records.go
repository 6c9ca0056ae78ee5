package linker

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/crytic/manganis/assets"
)

// MalformedRecordError reports an embedded record that could not be decoded. Records are written by the same tool that
// reads them, so this always indicates a tooling bug or a version mismatch.
type MalformedRecordError struct {
	Offset int
	Err    error
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed asset record at byte %d: %v", e.Offset, e.Err)
}

// Unwrap returns the decoding error.
func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// EncodeRecord serializes a single asset as a self-contained JSON record.
func EncodeRecord(asset assets.AssetType) ([]byte, error) {
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(asset)
}

// EncodeRecords serializes assets back to back with no separator, the way the linker concatenates the per-declaration
// blobs it merges into the asset section.
func EncodeRecords(list []assets.AssetType) ([]byte, error) {
	var buf bytes.Buffer
	for _, asset := range list {
		record, err := EncodeRecord(asset)
		if err != nil {
			return nil, err
		}
		buf.Write(record)
	}
	return buf.Bytes(), nil
}

// DecodeRecords parses a concatenation of records read from an asset section. Control and padding bytes are dropped
// first since linkers may pad between blobs. Records are then decoded greedily, one after the other. Decoding stops at
// the first byte that cannot start a record, so trailing whitespace or padding is tolerated. A record that starts but
// does not decode is an error.
func DecodeRecords(data []byte) ([]assets.AssetType, error) {
	cleaned := stripControlBytes(data)

	var records []assets.AssetType
	offset := 0
	for {
		rest := bytes.TrimLeft(cleaned[offset:], " \t\r\n")
		offset = len(cleaned) - len(rest)
		if len(rest) == 0 || rest[0] != '{' {
			return records, nil
		}

		decoder := json.NewDecoder(bytes.NewReader(rest))
		var asset assets.AssetType
		if err := decoder.Decode(&asset); err != nil {
			return nil, &MalformedRecordError{Offset: offset, Err: err}
		}
		if err := asset.Validate(); err != nil {
			return nil, &MalformedRecordError{Offset: offset, Err: err}
		}
		records = append(records, asset)
		offset += int(decoder.InputOffset())
	}
}

// stripControlBytes removes ASCII control characters other than whitespace. JSON never carries them unescaped, so
// removing them cannot alter a record.
func stripControlBytes(data []byte) []byte {
	cleaned := make([]byte, 0, len(data))
	for _, b := range data {
		if (b < 0x20 && b != '\t' && b != '\n' && b != '\r') || b == 0x7f {
			continue
		}
		cleaned = append(cleaned, b)
	}
	return cleaned
}
