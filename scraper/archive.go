package scraper

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/crytic/manganis/assets"
)

// archiveMagic starts every System V and BSD ar archive.
const archiveMagic = "!<arch>\n"

// archiveHeaderSize is the size of the fixed header preceding each member.
const archiveHeaderSize = 60

// archiveMember is one file stored in an ar archive.
type archiveMember struct {
	Name string
	Data []byte
}

// readArchive lists the members of an ar archive. GNU long names (stored in the "//" member) and BSD long names
// ("#1/<len>" followed by the name) are resolved. Symbol tables are skipped.
func readArchive(data []byte) ([]archiveMember, error) {
	if !bytes.HasPrefix(data, []byte(archiveMagic)) {
		return nil, fmt.Errorf("not an ar archive")
	}

	var members []archiveMember
	var longNames []byte
	offset := len(archiveMagic)
	for offset < len(data) {
		// Members are aligned to two bytes
		if offset%2 == 1 && data[offset] == '\n' {
			offset++
			continue
		}
		if len(data)-offset < archiveHeaderSize {
			return nil, fmt.Errorf("ar header at byte %d: %w", offset, errTruncated)
		}
		header := data[offset : offset+archiveHeaderSize]
		if string(header[58:60]) != "`\n" {
			return nil, fmt.Errorf("ar header at byte %d has a bad terminator", offset)
		}
		size, err := strconv.ParseUint(strings.TrimSpace(string(header[48:58])), 10, 63)
		if err != nil {
			return nil, fmt.Errorf("ar header at byte %d has a bad size: %w", offset, err)
		}
		offset += archiveHeaderSize
		if size > uint64(len(data)-offset) {
			return nil, fmt.Errorf("ar member at byte %d: %w", offset, errTruncated)
		}
		body := data[offset : offset+int(size)]
		offset += int(size)

		name := strings.TrimRight(string(header[0:16]), " ")
		switch {
		case name == "//":
			longNames = body
			continue
		case name == "/" || name == "/SYM64/" || strings.HasPrefix(name, "__.SYMDEF"):
			continue
		case strings.HasPrefix(name, "#1/"):
			nameLen, err := strconv.Atoi(name[3:])
			if err != nil || nameLen > len(body) {
				return nil, fmt.Errorf("ar member %q has a bad BSD name length", name)
			}
			name = strings.TrimRight(string(body[:nameLen]), "\x00")
			body = body[nameLen:]
			if strings.HasPrefix(name, "__.SYMDEF") {
				continue
			}
		case len(name) > 1 && name[0] == '/':
			index, err := strconv.Atoi(name[1:])
			if err != nil || index >= len(longNames) {
				return nil, fmt.Errorf("ar member %q references a missing long name", name)
			}
			end := bytes.IndexByte(longNames[index:], '\n')
			if end < 0 {
				end = len(longNames) - index
			}
			name = strings.TrimSuffix(string(longNames[index:index+end]), "/")
		default:
			name = strings.TrimSuffix(name, "/")
		}

		members = append(members, archiveMember{Name: name, Data: body})
	}
	return members, nil
}

// scrapeArchive scrapes every member of an archive. Members are decoded separately so that padding after one
// member's records does not hide the next member's.
func scrapeArchive(data []byte) ([]assets.AssetType, error) {
	members, err := readArchive(data)
	if err != nil {
		return nil, err
	}

	var records []assets.AssetType
	for _, member := range members {
		found, err := ScrapeBytes(member.Data)
		if err != nil {
			return nil, fmt.Errorf("archive member %s: %w", member.Name, err)
		}
		records = append(records, found...)
	}
	return records, nil
}
