package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/jscontext-mcp/internal/parser"
	"github.com/dshills/jscontext-mcp/pkg/types"
)

var parseSnippets bool

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse one source file and print its structure",
	Long: `Parse extracts the structural elements (classes, functions, methods,
components) and module edges (imports, exports) of a single file and prints
them as JSON on stdout. Parse diagnostics, such as declarations dropped
because a closing brace was never found, go to stderr.

No index is consulted or required.

Examples:
  jscontext parse src/services/userService.js
  jscontext parse --snippets src/App.jsx`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseSnippets, "snippets", false, "include full source snippets in the output")
}

// JSON output shapes for the parse command. Keys match the MCP
// get_file_structure tool so output is interchangeable between the two.
type fileStructureJSON struct {
	File     string              `json:"file"`
	Elements []parsedElementJSON `json:"elements"`
	Imports  []parsedImportJSON  `json:"imports"`
	Exports  []parsedExportJSON  `json:"exports"`
}

type parsedElementJSON struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	ClassName   string   `json:"class_name,omitempty"`
	Signature   string   `json:"signature"`
	Summary     string   `json:"summary,omitempty"`
	StartLine   int      `json:"start_line"`
	EndLine     int      `json:"end_line"`
	Conventions []string `json:"conventions,omitempty"`
	Snippet     string   `json:"snippet,omitempty"`
}

type parsedImportJSON struct {
	Source     string           `json:"source"`
	StartLine  int              `json:"start_line"`
	Specifiers []parsedSpecJSON `json:"specifiers"`
}

type parsedSpecJSON struct {
	Kind     string `json:"kind"`
	Imported string `json:"imported,omitempty"`
	Local    string `json:"local,omitempty"`
}

type parsedExportJSON struct {
	Kind      string                 `json:"kind"`
	StartLine int                    `json:"start_line"`
	Source    string                 `json:"source,omitempty"`
	Items     []parsedExportItemJSON `json:"items,omitempty"`
}

type parsedExportItemJSON struct {
	Public string `json:"public"`
	Local  string `json:"local,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	p := parser.New()
	result, err := p.ParseFile(absPath)
	if err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}

	for i := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s\n", result.Diagnostics[i].Error())
	}

	out := fileStructureJSON{
		File:     absPath,
		Elements: make([]parsedElementJSON, 0, len(result.Elements)),
		Imports:  make([]parsedImportJSON, 0, len(result.Imports)),
		Exports:  make([]parsedExportJSON, 0, len(result.Exports)),
	}

	for i := range result.Elements {
		el := &result.Elements[i]
		entry := parsedElementJSON{
			Name:        el.Name,
			Kind:        string(el.Kind),
			ClassName:   el.ClassName,
			Signature:   el.Signature,
			Summary:     el.Summary,
			StartLine:   el.StartLine,
			EndLine:     el.EndLine,
			Conventions: conventionNames(el),
		}
		if parseSnippets {
			entry.Snippet = el.Snippet
		}
		out.Elements = append(out.Elements, entry)
	}

	for _, imp := range result.Imports {
		specs := make([]parsedSpecJSON, 0, len(imp.Specifiers))
		for _, spec := range imp.Specifiers {
			specs = append(specs, parsedSpecJSON{
				Kind:     string(spec.Kind),
				Imported: spec.ImportedName,
				Local:    spec.LocalName,
			})
		}
		out.Imports = append(out.Imports, parsedImportJSON{
			Source:     imp.Source,
			StartLine:  imp.StartLine,
			Specifiers: specs,
		})
	}

	for _, exp := range result.Exports {
		entry := parsedExportJSON{
			Kind:      string(exp.Kind),
			StartLine: exp.StartLine,
			Source:    exp.Source,
		}
		for _, item := range exp.Items {
			itemEntry := parsedExportItemJSON{Public: item.PublicName}
			if item.LocalName != item.PublicName {
				itemEntry.Local = item.LocalName
			}
			entry.Items = append(entry.Items, itemEntry)
		}
		out.Exports = append(out.Exports, entry)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode structure: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// conventionNames lists the naming conventions an element matched.
func conventionNames(el *types.StructuralElement) []string {
	var names []string
	if el.IsComponent {
		names = append(names, "component")
	}
	if el.IsHook {
		names = append(names, "hook")
	}
	if el.IsService {
		names = append(names, "service")
	}
	if el.IsController {
		names = append(names, "controller")
	}
	if el.IsStore {
		names = append(names, "store")
	}
	if el.IsHandler {
		names = append(names, "handler")
	}
	return names
}
