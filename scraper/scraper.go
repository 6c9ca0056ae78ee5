package scraper

import (
	"bytes"
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/crytic/manganis/assets"
	"github.com/crytic/manganis/linker"
	"github.com/crytic/manganis/logging"
	"golang.org/x/sync/errgroup"
)

// scraperLogger is the logger used by the scraper package.
var scraperLogger = logging.GlobalLogger.NewSubLogger("module", logging.SCRAPER_SERVICE)

// Format identifies the container format of a scraped file.
type Format string

const (
	FormatUnknown  Format = "unknown"
	FormatELF      Format = "elf"
	FormatMachO    Format = "macho"
	FormatFatMachO Format = "macho-fat"
	FormatPE       Format = "pe"
	FormatCOFF     Format = "coff"
	FormatWasm     Format = "wasm"
	FormatArchive  Format = "archive"
)

// DetectFormat identifies the container format of data from its leading bytes.
func DetectFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte(elf.ELFMAG)):
		return FormatELF
	case bytes.HasPrefix(data, []byte(archiveMagic)):
		return FormatArchive
	case bytes.HasPrefix(data, wasmMagic):
		return FormatWasm
	case bytes.HasPrefix(data, []byte("MZ")):
		return FormatPE
	}
	if len(data) < 4 {
		return FormatUnknown
	}

	be := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
	le := uint32(data[3])<<24 | uint32(data[2])<<16 | uint32(data[1])<<8 | uint32(data[0])
	switch {
	case be == macho.MagicFat:
		return FormatFatMachO
	case le == macho.Magic32 || le == macho.Magic64 || be == macho.Magic32 || be == macho.Magic64:
		return FormatMachO
	}

	if len(data) >= 2 && isCOFFMachine(uint16(data[0])|uint16(data[1])<<8) {
		return FormatCOFF
	}
	return FormatUnknown
}

// ScrapeFile reads the asset records embedded in an executable, object file or static archive. A file without the
// asset section, or in a format that cannot carry one, yields no records and no error.
func ScrapeFile(path string) ([]assets.AssetType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	records, err := ScrapeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", path, err)
	}
	scraperLogger.Debug("Found ", len(records), " asset records in ", path)
	return records, nil
}

// ScrapeBytes is ScrapeFile for an in-memory file.
func ScrapeBytes(data []byte) ([]assets.AssetType, error) {
	if DetectFormat(data) == FormatArchive {
		return scrapeArchive(data)
	}
	section, err := sectionData(data)
	if err != nil || len(section) == 0 {
		return nil, err
	}
	return linker.DecodeRecords(section)
}

// sectionData returns the concatenated contents of every asset section in data.
func sectionData(data []byte) ([]byte, error) {
	switch DetectFormat(data) {
	case FormatELF:
		return elfSection(data)
	case FormatMachO:
		return machoSection(data)
	case FormatFatMachO:
		return fatMachoSection(data)
	case FormatPE, FormatCOFF:
		return peSection(data)
	case FormatWasm:
		return wasmSection(data)
	}
	return nil, nil
}

func elfSection(data []byte) ([]byte, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	elfSection := linker.SectionFor(linker.PlatformELF)
	illumosSection := linker.SectionFor(linker.PlatformIllumos)
	var out []byte
	for _, s := range f.Sections {
		if !elfSection.Matches("", s.Name) && !illumosSection.Matches("", s.Name) {
			continue
		}
		if s.Type == elf.SHT_NOBITS {
			continue
		}
		contents, err := s.Data()
		if err != nil {
			return nil, err
		}
		out = append(out, contents...)
	}
	return out, nil
}

func machoSection(data []byte) ([]byte, error) {
	f, err := macho.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return machoFileSection(f)
}

func machoFileSection(f *macho.File) ([]byte, error) {
	section := linker.SectionFor(linker.PlatformMachO)
	var out []byte
	for _, s := range f.Sections {
		if !section.Matches(s.Seg, s.Name) {
			continue
		}
		contents, err := s.Data()
		if err != nil {
			return nil, err
		}
		out = append(out, contents...)
	}
	return out, nil
}

// fatMachoSection reads the first architecture that carries the section. Every slice of a universal binary embeds the
// same records.
func fatMachoSection(data []byte) ([]byte, error) {
	f, err := macho.NewFatFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for _, arch := range f.Arches {
		contents, err := machoFileSection(arch.File)
		if err != nil {
			return nil, err
		}
		if len(contents) > 0 {
			return contents, nil
		}
	}
	return nil, nil
}

func peSection(data []byte) ([]byte, error) {
	f, err := pe.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	section := linker.SectionFor(linker.PlatformPE)
	var out []byte
	for _, s := range f.Sections {
		if !section.Matches("", s.Name) {
			continue
		}
		contents, err := s.Data()
		if err != nil {
			return nil, err
		}
		// Images pad sections to the file alignment with zeros, which record decoding skips
		if s.VirtualSize != 0 && int(s.VirtualSize) < len(contents) {
			contents = contents[:s.VirtualSize]
		}
		out = append(out, contents...)
	}
	return out, nil
}

// isCOFFMachine reports whether machine is the machine field of a COFF object file the toolchain produces.
func isCOFFMachine(machine uint16) bool {
	switch machine {
	case pe.IMAGE_FILE_MACHINE_AMD64, pe.IMAGE_FILE_MACHINE_I386, pe.IMAGE_FILE_MACHINE_ARM64, pe.IMAGE_FILE_MACHINE_ARMNT:
		return true
	}
	return false
}

// errTruncated reports a container whose declared sizes run past the end of the data.
var errTruncated = errors.New("truncated file")

// ScrapeFiles scrapes every path concurrently and returns one PackageAssets per file that carries records, in the
// order of paths. A record already found in an earlier file is dropped, since every object of a package embeds the
// same records.
func ScrapeFiles(paths []string) (assets.AssetManifest, error) {
	found := make([][]assets.AssetType, len(paths))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		g.Go(func() error {
			records, err := ScrapeFile(path)
			if err != nil {
				return err
			}
			found[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return assets.AssetManifest{}, err
	}

	manifest := assets.AssetManifest{Packages: []assets.PackageAssets{}}
	seen := make(map[string]struct{})
	for i, records := range found {
		var unique []assets.AssetType
		for _, record := range records {
			key, err := linker.EncodeRecord(record)
			if err != nil {
				return assets.AssetManifest{}, err
			}
			if _, ok := seen[string(key)]; ok {
				continue
			}
			seen[string(key)] = struct{}{}
			unique = append(unique, record)
		}
		if len(unique) > 0 {
			manifest.Packages = append(manifest.Packages, assets.PackageAssets{Package: paths[i], Assets: unique})
		}
	}
	return manifest, nil
}
