package catalogue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadDir discovers test cases from the JSON files directly under dir,
// grounded on tcpTester/testCaseLoader.py's directory-scan discovery: one
// file per case, no recursion, a case that fails to parse is reported in
// the returned error slice and skipped rather than aborting the load.
func LoadDir(dir string) (*Catalogue, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &Catalogue{}, []error{fmt.Errorf("catalogue: reading %s: %w", dir, err)}
	}

	var cases []Case
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("catalogue: reading %s: %w", path, err))
			continue
		}
		var c Case
		if err := json.Unmarshal(data, &c); err != nil {
			errs = append(errs, fmt.Errorf("catalogue: parsing %s: %w", path, err))
			continue
		}
		cases = append(cases, c)
	}

	cat, newErrs := New(cases...)
	errs = append(errs, newErrs...)
	return cat, errs
}
