package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type corpusFile struct {
	FAQ []Record `yaml:"faq"`
}

// LoadCorpus reads a YAML file of the form:
//
//	faq:
//	  - q: "reset password"
//	    a: "Visit settings > security to reset."
//
// Entries with an empty question or answer are skipped.
func LoadCorpus(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}

	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing corpus %s: %w", path, err)
	}

	records := make([]Record, 0, len(f.FAQ))
	for _, rec := range f.FAQ {
		if rec.Question == "" || rec.Answer == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
