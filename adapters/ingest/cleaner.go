package ingest

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"

	"insurisk/domain/core"
	"insurisk/domain/frame"
)

func nan() float64 { return math.NaN() }

// Cleaner standardises column types and fills missing values: numeric
// columns take their median, categorical columns their mode. Date
// columns become days since the Unix epoch; yes/no columns become 1/0.
type Cleaner struct {
	DateColumns []string
	BoolColumns []string
}

// dateLayouts are tried in order when parsing date columns
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Clean returns a new frame with standardised, fully imputed columns.
// Column order is preserved. A column with no observed values at all is
// a data error.
func (c *Cleaner) Clean(f *frame.Frame) (*frame.Frame, error) {
	dates := toSet(c.DateColumns)
	bools := toSet(c.BoolColumns)

	out := frame.New()
	for _, name := range f.Names() {
		col := f.Column(name)

		var err error
		switch {
		case dates[name]:
			err = addDateColumn(out, col)
		case bools[name]:
			err = addBoolColumn(out, col)
		case col.Kind == frame.KindNumeric:
			err = addImputedNumeric(out, name, col.Numeric)
		default:
			err = addImputedCategorical(out, name, col.Labels)
		}
		if err != nil {
			return nil, err
		}
	}
	log.Info().Int("rows", out.Rows()).Int("columns", out.Width()).Msg("dataset cleaned")
	return out, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func addDateColumn(out *frame.Frame, col *frame.Column) error {
	values := make([]float64, col.Len())
	for i := range values {
		values[i] = nan()
		if col.Kind != frame.KindCategorical || col.Labels[i] == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, col.Labels[i]); err == nil {
				values[i] = float64(t.Unix()) / 86400.0
				break
			}
		}
	}
	return addImputedNumeric(out, col.Name, values)
}

func addBoolColumn(out *frame.Frame, col *frame.Column) error {
	values := make([]float64, col.Len())
	for i := range values {
		values[i] = nan()
		var raw string
		if col.Kind == frame.KindCategorical {
			raw = col.Labels[i]
		} else if !math.IsNaN(col.Numeric[i]) {
			if col.Numeric[i] != 0 {
				raw = "yes"
			} else {
				raw = "no"
			}
		}
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "yes", "y", "true", "1":
			values[i] = 1
		case "no", "n", "false", "0":
			values[i] = 0
		}
	}
	return addImputedNumeric(out, col.Name, values)
}

func addImputedNumeric(out *frame.Frame, name string, values []float64) error {
	observed := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	if len(observed) == 0 {
		return fmt.Errorf("%w: %q", core.ErrAllMissing, name)
	}

	median, err := stats.Median(observed)
	if err != nil {
		return err
	}

	filled := make([]float64, len(values))
	imputed := 0
	for i, v := range values {
		if math.IsNaN(v) {
			filled[i] = median
			imputed++
			continue
		}
		filled[i] = v
	}
	if imputed > 0 {
		log.Debug().Str("column", name).Int("imputed", imputed).Float64("median", median).Msg("numeric imputation")
	}
	return out.AddNumeric(name, filled)
}

func addImputedCategorical(out *frame.Frame, name string, labels []string) error {
	counts := map[string]int{}
	for _, v := range labels {
		if v != "" {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return fmt.Errorf("%w: %q", core.ErrAllMissing, name)
	}

	mode := modeOf(counts)
	filled := make([]string, len(labels))
	imputed := 0
	for i, v := range labels {
		if v == "" {
			filled[i] = mode
			imputed++
			continue
		}
		filled[i] = v
	}
	if imputed > 0 {
		log.Debug().Str("column", name).Int("imputed", imputed).Str("mode", mode).Msg("categorical imputation")
	}
	return out.AddCategorical(name, filled)
}

// modeOf picks the most frequent label, breaking ties lexicographically
// so imputation stays deterministic
func modeOf(counts map[string]int) string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	best, bestCount := "", -1
	for _, label := range labels {
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}
