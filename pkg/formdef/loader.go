package formdef

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a definition from JSON, falling back to YAML, and lints it
// with Validate before returning.
func Parse(data []byte) (*Definition, error) {
	def, err := parseDocument(data, "")
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Load reads and parses a single definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("formdef: read %s: %w", path, err)
	}
	def, err := parseDocument(data, path)
	if err != nil {
		return nil, err
	}
	if def.ID == "" {
		def.ID = definitionIDFromPath(path)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// LoadFS walks fsys and parses every .json/.yaml/.yml file into a definition,
// keyed by definition id. Files without an authored id take their base name.
func LoadFS(fsys fs.FS) (map[string]*Definition, error) {
	out := make(map[string]*Definition)
	if fsys == nil {
		return out, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("formdef: read %s: %w", path, err)
		}
		def, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		if def.ID == "" {
			def.ID = definitionIDFromPath(path)
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("formdef: file %s: %w", path, err)
		}
		if _, exists := out[def.ID]; exists {
			return fmt.Errorf("formdef: duplicate definition id %q (file %s)", def.ID, path)
		}
		out[def.ID] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseDocument(data []byte, source string) (*Definition, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		if source == "" {
			return nil, fmt.Errorf("formdef: document is empty")
		}
		return nil, fmt.Errorf("formdef: file %s is empty", source)
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err == nil {
		return &def, nil
	}

	def = Definition{}
	if err := yaml.Unmarshal(data, &def); err == nil {
		return &def, nil
	}

	if source == "" {
		return nil, fmt.Errorf("formdef: parse: invalid JSON or YAML")
	}
	return nil, fmt.Errorf("formdef: parse %s: invalid JSON or YAML", source)
}

func definitionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
