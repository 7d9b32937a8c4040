package material

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"createmovie/internal/fileutil"
)

// UnknownCategory is assigned to materials whose metadata omits a category.
const UnknownCategory = "unknown"

type poolFile struct {
	Photos []*Material `yaml:"photos"`
}

// LoadPool reads a material metadata file (a `photos:` list). Relative paths
// are resolved against root; when root is empty the metadata file's
// grandparent directory is used, matching the
// source_materials/metadata/photo_descriptions.yaml layout.
func LoadPool(path, root string) ([]*Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: "read material metadata", Err: err}
	}
	if root == "" {
		root = filepath.Dir(filepath.Dir(path))
	}
	pool, err := ParsePool(data, root)
	if err != nil {
		if cfgErr, ok := err.(*ConfigError); ok {
			cfgErr.Path = path
		}
		return nil, err
	}
	return pool, nil
}

// ParsePool decodes metadata YAML and fills documented defaults:
// category "unknown", id "<category>_<filename stem>" and path
// "<root>/raw/<category>/<filename>".
func ParsePool(data []byte, root string) ([]*Material, error) {
	var file poolFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, &ConfigError{Message: "parse material metadata", Err: err}
	}
	seen := make(map[string]int, len(file.Photos))
	pool := make([]*Material, 0, len(file.Photos))
	for i, m := range file.Photos {
		if m == nil {
			return nil, &ConfigError{Field: fmt.Sprintf("photos[%d]", i), Message: "empty entry"}
		}
		if err := applyDefaults(m, root); err != nil {
			err.Field = fmt.Sprintf("photos[%d].%s", i, err.Field)
			return nil, err
		}
		if prev, dup := seen[m.ID]; dup {
			return nil, &ConfigError{
				Field:   fmt.Sprintf("photos[%d].id", i),
				Message: fmt.Sprintf("duplicate id %q (first seen at photos[%d])", m.ID, prev),
			}
		}
		seen[m.ID] = i
		pool = append(pool, m)
	}
	return pool, nil
}

func applyDefaults(m *Material, root string) *ConfigError {
	m.Filename = strings.TrimSpace(m.Filename)
	if m.Filename == "" {
		return &ConfigError{Field: "filename", Message: "is required"}
	}
	m.Category = strings.TrimSpace(m.Category)
	if m.Category == "" {
		m.Category = UnknownCategory
	}
	if strings.TrimSpace(m.ID) == "" {
		stem := strings.TrimSuffix(m.Filename, filepath.Ext(m.Filename))
		m.ID = m.Category + "_" + stem
	}
	if strings.TrimSpace(m.Path) == "" {
		m.Path = filepath.Join(root, "raw", m.Category, m.Filename)
	}
	if q := m.QualityScore; !(q >= 0 && q <= 1) {
		return &ConfigError{Field: "quality_score", Message: fmt.Sprintf("must be between 0 and 1, got %g", m.QualityScore)}
	}
	if m.Width < 0 || m.Height < 0 {
		return &ConfigError{Field: "width", Message: "dimensions must be non-negative"}
	}
	return nil
}

// SavePool writes the pool back as metadata YAML, including assignment state.
// Writers are serialized through a sibling lock file and the file is replaced
// atomically.
func SavePool(path string, pool []*Material) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(poolFile{Photos: pool}); err != nil {
		return fmt.Errorf("encode material metadata: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode material metadata: %w", err)
	}

	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("save material metadata: %w", err)
	}
	return nil
}
