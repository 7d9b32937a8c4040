package material

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type storyboardFile struct {
	Title string `yaml:"title" json:"title"`
	Cuts  []Cut  `yaml:"cuts" json:"cuts"`
}

// LoadStoryboard reads the `cuts:` list from a YAML or JSON storyboard.
func LoadStoryboard(path string) ([]Cut, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Message: "read storyboard", Err: err}
	}
	var file storyboardFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &file)
	} else {
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Message: "parse storyboard", Err: err}
	}
	for i := range file.Cuts {
		file.Cuts[i].Categories = trimCategories(file.Cuts[i].Categories)
	}
	return file.Cuts, nil
}

func trimCategories(in []string) []string {
	out := in[:0]
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
