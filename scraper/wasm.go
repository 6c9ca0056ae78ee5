package scraper

import (
	"fmt"

	"github.com/crytic/manganis/linker"
)

var wasmMagic = []byte{0x00, 'a', 's', 'm'}

// wasmCustomSection is the id of a custom section. Custom sections carry a name followed by an opaque payload.
const wasmCustomSection = 0

// wasmSection concatenates the payloads of every custom section named after the asset section.
func wasmSection(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, errTruncated
	}
	name := linker.SectionFor(linker.PlatformWasm).Name

	var out []byte
	offset := 8
	for offset < len(data) {
		id := data[offset]
		offset++

		size, n, err := readULEB128(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("wasm section at byte %d: %w", offset, err)
		}
		offset += n
		if size > uint64(len(data)-offset) {
			return nil, fmt.Errorf("wasm section at byte %d: %w", offset, errTruncated)
		}
		body := data[offset : offset+int(size)]
		offset += int(size)

		if id != wasmCustomSection {
			continue
		}
		nameLen, n, err := readULEB128(body)
		if err != nil || nameLen > uint64(len(body)-n) {
			return nil, fmt.Errorf("wasm custom section name: %w", errTruncated)
		}
		if string(body[n:n+int(nameLen)]) == name {
			out = append(out, body[n+int(nameLen):]...)
		}
	}
	return out, nil
}

// readULEB128 decodes an unsigned LEB128 value and returns it with the number of bytes read.
func readULEB128(data []byte) (uint64, int, error) {
	var value uint64
	var shift uint
	for i, b := range data {
		if shift >= 64 {
			return 0, 0, fmt.Errorf("LEB128 value overflows")
		}
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errTruncated
}
