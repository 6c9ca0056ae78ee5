package declare

import (
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"

	"github.com/crytic/manganis/linker"
	"github.com/crytic/manganis/project"
)

// GoFileName is the name of the generated Go file exposing the served locations.
const GoFileName = "manganis_assets.go"

// CFileName is the name of the generated cgo C file holding the embedded records.
const CFileName = "manganis_assets.c"

// GenerateGoSource renders a Go file for goPackage that exports the served location of every named declaration as a
// string constant. When embed is set the file also imports the C anchor of the records file, which keeps the records
// linked into the final binary.
func GenerateGoSource(goPackage string, decls []Declaration, symbolPrefix string, embed bool) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("// " + linker.GeneratedHeader + "\n\n")
	fmt.Fprintf(&sb, "package %s\n\n", goPackage)

	if embed {
		fmt.Fprintf(&sb, "/*\nconst void *%s(void);\n*/\nimport \"C\"\n\n", linker.AnchorFunction(symbolPrefix))
	}

	named := make([]Declaration, 0, len(decls))
	seen := make(map[string]struct{}, len(decls))
	for _, decl := range decls {
		if decl.Name == "" {
			continue
		}
		ident := project.GoIdentifier(decl.Name, true)
		if _, ok := seen[ident]; ok {
			return nil, fmt.Errorf("asset name '%s' is declared twice", decl.Name)
		}
		seen[ident] = struct{}{}
		decl.Name = ident
		named = append(named, decl)
	}
	sort.SliceStable(named, func(i, j int) bool { return named[i].Name < named[j].Name })

	if len(named) > 0 {
		sb.WriteString("const (\n")
		for _, decl := range named {
			fmt.Fprintf(&sb, "\t// %s is %s\n", decl.Name, decl.Asset)
			fmt.Fprintf(&sb, "\t%s = %s\n", decl.Name, strconv.Quote(decl.Served))
		}
		sb.WriteString(")\n")
	}

	if embed {
		fmt.Fprintf(&sb, "\nfunc init() {\n\t_ = C.%s()\n}\n", linker.AnchorFunction(symbolPrefix))
	}

	formatted, err := format.Source([]byte(sb.String()))
	if err != nil {
		return nil, fmt.Errorf("failed to format generated source: %w", err)
	}
	return formatted, nil
}
