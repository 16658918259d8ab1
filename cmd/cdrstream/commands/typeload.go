package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ddsx/cdrstream/internal/cli/prompt"
	"github.com/ddsx/cdrstream/pkg/typedesc"
)

// loadTypeDescriptor reads a single JSON-encoded typedesc.TypeDescriptor
// document from path, in the shape pkg/typedesc/schema describes.
func loadTypeDescriptor(path string) (*typedesc.TypeDescriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading type descriptor %s: %w", path, err)
	}
	var desc typedesc.TypeDescriptor
	if err := json.Unmarshal(b, &desc); err != nil {
		return nil, fmt.Errorf("parsing type descriptor %s: %w", path, err)
	}
	return &desc, nil
}

// resolveTypeDescriptor implements the --type-file / --types-dir / --type
// selection SPEC_FULL.md describes for cdrstream describe: a single file is
// used directly; a directory of *.json descriptors is narrowed by --type if
// given, or by an interactive promptui picker when more than one candidate
// remains.
func resolveTypeDescriptor(typeFile, typesDir, typeName string) (*typedesc.TypeDescriptor, error) {
	if typeFile != "" {
		return loadTypeDescriptor(typeFile)
	}
	if typesDir == "" {
		return nil, fmt.Errorf("one of --type-file or --types-dir is required")
	}

	matches, err := filepath.Glob(filepath.Join(typesDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", typesDir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no type descriptor files found in %s", typesDir)
	}

	descs := make(map[string]*typedesc.TypeDescriptor, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		d, err := loadTypeDescriptor(m)
		if err != nil {
			return nil, err
		}
		descs[d.Name] = d
		names = append(names, d.Name)
	}
	sort.Strings(names)

	if typeName != "" {
		d, ok := descs[typeName]
		if !ok {
			return nil, fmt.Errorf("type %q not found in %s", typeName, typesDir)
		}
		return d, nil
	}

	if len(names) == 1 {
		return descs[names[0]], nil
	}

	chosen, err := prompt.SelectString("Select a type", names)
	if err != nil {
		return nil, err
	}
	return descs[chosen], nil
}
