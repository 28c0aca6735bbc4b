package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

type corpusFile struct {
	Domain  string  `yaml:"domain"`
	Entries []Entry `yaml:"entries"`
}

// LoadDir reads every *.yaml/*.yml file in dir and merges them into one
// domain→entries map. Files for the same domain append in filename order so
// corpus order, and therefore tie-breaking, stays deterministic.
func LoadDir(dir string) (map[string][]Entry, error) {
	names, err := corpusFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("knowledge: no corpus files in %s", dir)
	}

	corpora := make(map[string][]Entry)
	for _, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("knowledge: read %s: %w", name, err)
		}
		var cf corpusFile
		if err := yaml.Unmarshal(data, &cf); err != nil {
			return nil, fmt.Errorf("knowledge: parse %s: %w", name, err)
		}
		if cf.Domain == "" {
			return nil, fmt.Errorf("knowledge: %s has no domain", name)
		}
		corpora[cf.Domain] = append(corpora[cf.Domain], cf.Entries...)
	}
	return corpora, nil
}

func corpusFiles(dir string) ([]string, error) {
	var names []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		names = append(names, matches...)
	}
	sort.Strings(names)
	return names, nil
}
