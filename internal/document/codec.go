package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// IsYAML reports whether a file path names a YAML file by extension.
func IsYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadFile reads a JSON or YAML document from disk, choosing the codec by extension.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document file %s: %w", path, err)
	}
	if IsYAML(path) {
		return ParseYAML(data)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// ParseYAML decodes YAML into a document. The tree is normalized through JSON so
// numbers and mappings have the same Go types as JSON-loaded documents.
func ParseYAML(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse document YAML: %w", err)
	}
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document YAML: %w", err)
	}
	return Parse(normalized)
}

// WriteFile writes the document as indented JSON, or YAML when the path says so.
func WriteFile(d *Document, path string) error {
	var (
		data []byte
		err  error
	)
	if IsYAML(path) {
		data, err = yaml.Marshal(d.root)
	} else {
		data, err = json.MarshalIndent(d.root, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write document file %s: %w", path, err)
	}
	return nil
}
