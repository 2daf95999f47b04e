package carton

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/dimfreight/internal/config"
)

// Rules is the on-disk vendor list file.
type Rules struct {
	FlatpackVendors  []string `yaml:"flatpack_vendors"`
	AssembledVendors []string `yaml:"assembled_vendors"`
}

// LoadRules reads a vendor rules YAML file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "carton: read rules %s", path)
	}
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "carton: parse rules %s", path)
	}
	return &r, nil
}

// ApplyRules merges the rules file at path, if any, into t.
func ApplyRules(t config.Tuning, path string) (config.Tuning, error) {
	if path == "" {
		return t, nil
	}
	r, err := LoadRules(path)
	if err != nil {
		return t, err
	}
	return t.WithVendors(r.FlatpackVendors, r.AssembledVendors), nil
}
