package gaia

import (
	"fmt"
	"math"
)

// DefaultMinParallaxSNR is the parallax signal-to-noise cut: rows need Plx/e_Plx > 5.
const DefaultMinParallaxSNR = 5.0

// FilterStats counts what the quality filter did.
type FilterStats struct {
	Input          int
	Undefined      int // Plx/e_Plx is NaN or infinite (e.g. e_Plx == 0)
	BelowThreshold int // ratio <= threshold
	Kept           int
}

func (s FilterStats) String() string {
	return fmt.Sprintf("%d rows, %d undefined Plx/e_Plx, %d at or below threshold, %d kept",
		s.Input, s.Undefined, s.BelowThreshold, s.Kept)
}

// ParallaxSNR is the derived quality column.
func ParallaxSNR(plx, ePlx float64) float64 { return plx / ePlx }

// FilterByParallaxSNR adds the Plx/e_Plx column and keeps rows whose ratio is defined and
// strictly greater than minSNR. Row order is preserved. The input table is not modified.
func FilterByParallaxSNR(t *Table, minSNR float64) (*Table, FilterStats, error) {
	var st FilterStats
	plx, okP := t.Column(ColPlx)
	ePlx, okE := t.Column(ColEPlx)
	if !okP || !okE {
		var missing []string
		if !okP {
			missing = append(missing, ColPlx)
		}
		if !okE {
			missing = append(missing, ColEPlx)
		}
		return nil, st, &MissingColumnError{Missing: missing}
	}

	st.Input = t.Len()
	keep := make([]int, 0, t.Len())
	ratios := make([]float64, 0, t.Len())
	for i := range plx {
		r := ParallaxSNR(plx[i], ePlx[i])
		switch {
		case math.IsNaN(r) || math.IsInf(r, 0):
			st.Undefined++
		case r <= minSNR:
			st.BelowThreshold++
		default:
			keep = append(keep, i)
			ratios = append(ratios, r)
		}
	}
	out := t.Select(keep)
	if err := out.AddColumn(ColPlxSNR, ratios); err != nil {
		return nil, st, err
	}
	st.Kept = out.Len()
	return out, st, nil
}
