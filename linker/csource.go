package linker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/crytic/manganis/assets"
)

// GeneratedHeader marks files written by the declare step.
const GeneratedHeader = "Code generated by manganis. DO NOT EDIT."

// preprocessorGuards maps each platform to the C preprocessor condition that selects it. ELF is the fallback branch.
var preprocessorGuards = []struct {
	platform Platform
	guard    string
}{
	{PlatformMachO, "defined(__APPLE__)"},
	{PlatformPE, "defined(_WIN32)"},
	{PlatformIllumos, "defined(__sun)"},
}

// AnchorFunction returns the name of the C function a generated Go file calls so that the linker keeps the object
// holding the records.
func AnchorFunction(symbolPrefix string) string {
	return "manganis_" + sanitizeSymbol(symbolPrefix) + "_anchor"
}

// GenerateCSource renders a cgo C file that places one retained byte blob per record into the asset section. The
// section attribute is chosen by preprocessor branch, each branch rendered from SectionFor.
func GenerateCSource(records []assets.AssetType, symbolPrefix string) (string, error) {
	prefix := sanitizeSymbol(symbolPrefix)

	var sb strings.Builder
	sb.WriteString("// " + GeneratedHeader + "\n\n")

	for i, g := range preprocessorGuards {
		keyword := "#if"
		if i > 0 {
			keyword = "#elif"
		}
		fmt.Fprintf(&sb, "%s %s\n#define MANGANIS_SECTION %q\n", keyword, g.guard, SectionFor(g.platform).Definition)
	}
	fmt.Fprintf(&sb, "#else\n#define MANGANIS_SECTION %q\n#endif\n\n", SectionFor(PlatformELF).Definition)

	// retain keeps the blobs alive under --gc-sections, no_reorder keeps them in declaration order under -O2
	writeAttributeMacro(&sb, "MANGANIS_RETAIN", "retain")
	writeAttributeMacro(&sb, "MANGANIS_NO_REORDER", "no_reorder")
	sb.WriteString("\n")

	for i, record := range records {
		encoded, err := EncodeRecord(record)
		if err != nil {
			return "", fmt.Errorf("failed to encode asset record %d: %w", i, err)
		}
		fmt.Fprintf(&sb, "__attribute__((MANGANIS_RETAIN MANGANIS_NO_REORDER used, aligned(1), section(MANGANIS_SECTION)))\n")
		fmt.Fprintf(&sb, "const unsigned char manganis_%s_%d[%d] = {", prefix, i, len(encoded))
		for j, b := range encoded {
			if j%16 == 0 {
				sb.WriteString("\n\t")
			}
			fmt.Fprintf(&sb, "0x%02x,", b)
		}
		sb.WriteString("\n};\n\n")
	}

	if len(records) == 0 {
		fmt.Fprintf(&sb, "const void *%s(void) {\n\treturn 0;\n}\n", AnchorFunction(symbolPrefix))
		return sb.String(), nil
	}

	start := "manganis_" + prefix + "_start"
	for i, g := range preprocessorGuards {
		keyword := "#if"
		if i > 0 {
			keyword = "#elif"
		}
		fmt.Fprintf(&sb, "%s %s\n%s\n", keyword, g.guard, startDeclaration(SectionFor(g.platform), start))
	}
	fmt.Fprintf(&sb, "#else\n%s\n#endif\n\n", startDeclaration(SectionFor(PlatformELF), start))

	// The start symbol is weak, so the first blob stands in when the linker did not define it
	fmt.Fprintf(&sb, "const void *%s(void) {\n", AnchorFunction(symbolPrefix))
	fmt.Fprintf(&sb, "\treturn %s ? (const void *)%s : (const void *)manganis_%s_0;\n}\n", start, start, prefix)
	return sb.String(), nil
}

// writeAttributeMacro defines macro as "attribute," when the compiler knows the attribute and as nothing otherwise.
func writeAttributeMacro(sb *strings.Builder, macro string, attribute string) {
	fmt.Fprintf(sb, "#if defined(__has_attribute)\n#if __has_attribute(%s)\n#define %s %s,\n#endif\n#endif\n", attribute, macro, attribute)
	fmt.Fprintf(sb, "#ifndef %s\n#define %s\n#endif\n", macro, macro)
}

// startDeclaration declares symbol as the start of the asset section. ELF, Illumos and Mach-O linkers synthesize the
// start symbol, on PE it is a marker placed in the section group that sorts first.
func startDeclaration(section Section, symbol string) string {
	if section.Platform == PlatformPE {
		return fmt.Sprintf("__attribute__((used, section(%q))) static const unsigned char %s[1] = {0};", section.StartSymbol, symbol)
	}
	// A leading \x01 asks the compiler to use the name verbatim, which __asm labels already do
	name := strings.TrimPrefix(section.StartSymbol, "\x01")
	return fmt.Sprintf("extern const unsigned char %s[] __asm(%q) __attribute__((weak));", symbol, name)
}

// sanitizeSymbol turns an arbitrary string into a valid C identifier fragment.
func sanitizeSymbol(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	if sb.Len() == 0 {
		return "pkg"
	}
	return sb.String()
}
