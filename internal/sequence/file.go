package sequence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadProgram loads a program from JSON, or from YAML when the file ends in
// .yaml or .yml, and validates it.
func ReadProgram(path string) (Program, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Program{}, err
	}
	var prog Program
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &prog)
	default:
		err = json.Unmarshal(b, &prog)
	}
	if err != nil {
		return Program{}, fmt.Errorf("parse program %s: %w", path, err)
	}
	if err := prog.Validate(); err != nil {
		return Program{}, fmt.Errorf("program %s: %w", path, err)
	}
	return prog, nil
}
