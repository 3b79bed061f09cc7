// Package climetrics renders a Prometheus registry to text exposition
// format for CLI tools that gather metrics during a single run rather
// than serving /metrics continuously.
package climetrics

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Dump writes every metric family gathered from reg to path in Prometheus
// text exposition format.
func Dump(path string, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("climetrics.Dump: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("climetrics.Dump: %w", err)
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("climetrics.Dump: %w", err)
		}
	}

	return nil
}
