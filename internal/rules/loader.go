package rules

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/plarroque/cephalo/internal/model"
)

type ruleFile struct {
	Rules []model.Rule `yaml:"rules"`
}

// Load reads a rule table from a YAML file and builds an engine from
// it. Unknown keys and invalid rules are fatal: a half-loaded clinical
// table must never run.
func Load(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return NewEngine(rs)
}

// Parse decodes a YAML rule table. Decoding is strict: any field not
// declared on model.Rule rejects the document.
func Parse(data []byte) ([]model.Rule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("no rules defined")
	}
	return f.Rules, nil
}
