// Package chartfile is the chart-* command-line tools' shared load/save
// path: every tool reads and writes charts through chartio's JSON adapter.
package chartfile

import (
	"fmt"
	"os"

	"github.com/acorg/acmacs-chart-n/chart"
	"github.com/acorg/acmacs-chart-n/chartio"
)

// Load reads and decodes the chart at path.
func Load(path string) (*chart.Chart, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chartfile.Load: %w", err)
	}
	c, err := chartio.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("chartfile.Load: %w", err)
	}

	return c, nil
}

// Save encodes c and writes it to path.
func Save(path string, c *chart.Chart) error {
	data, err := chartio.Marshal(c)
	if err != nil {
		return fmt.Errorf("chartfile.Save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("chartfile.Save: %w", err)
	}

	return nil
}
