package generator

import "github.com/zappai-go/zappai/climate"

// targetVariables is T: the ERA-exclusive variables disjoint from the
// CMIP-overlap set. Computed defensively rather than assumed, so the |T| = 0
// edge case is honored even if the canonical lists ever overlap.
func targetVariables() []string {
	cmip := map[string]struct{}{}
	for _, v := range climate.CMIPOverlapVariables {
		cmip[v] = struct{}{}
	}
	var t []string
	for _, v := range climate.ERAExclusiveVariables {
		if _, overlap := cmip[v]; !overlap {
			t = append(t, v)
		}
	}
	return t
}

// featureRow builds one F-vector (feature set F = T ∪ {sin_year, cos_year} ∪
// CMIP-overlap) for a past climate record.
func featureRow(t []string, record climate.PastClimateRecord) []float64 {
	row := make([]float64, 0, len(t)+2+len(climate.CMIPOverlapVariables))
	for _, name := range t {
		row = append(row, record.Variables[name])
	}
	sin, cos := climate.CyclicMonth(record.YearMonth.Month)
	row = append(row, sin, cos)
	for _, name := range climate.CMIPOverlapVariables {
		row = append(row, record.Variables[name])
	}
	return row
}

// targetRow builds the |T|-dimensional label for a past climate record.
func targetRow(t []string, record climate.PastClimateRecord) []float64 {
	row := make([]float64, len(t))
	for i, name := range t {
		row[i] = record.Variables[name]
	}
	return row
}

// exogenousRow builds X, the exogenous slice of F (cyclic month features plus
// the CMIP-overlap variables) for a projection row.
func exogenousRow(record climate.FutureClimateRecord) []float64 {
	row := make([]float64, 0, 2+len(climate.CMIPOverlapVariables))
	sin, cos := climate.CyclicMonth(record.YearMonth.Month)
	row = append(row, sin, cos)
	for _, name := range climate.CMIPOverlapVariables {
		row = append(row, record.Variables[name])
	}
	return row
}

// mergeRolloutRow combines a target prediction τ_t (in T's column order) with
// an exogenous projection row p_t into one full F_gen-shaped climate record
// (the ERA-exclusive prediction in the target slots, the projection's
// CMIP-overlap values unchanged in the exogenous slots).
func mergeRolloutRow(t []string, tau []float64, projection climate.FutureClimateRecord) climate.PastClimateRecord {
	vars := make(map[string]float64, len(t)+len(climate.CMIPOverlapVariables))
	for i, name := range t {
		vars[name] = tau[i]
	}
	for _, name := range climate.CMIPOverlapVariables {
		vars[name] = projection.Variables[name]
	}
	return climate.PastClimateRecord{
		YearMonth: projection.YearMonth,
		Variables: vars,
	}
}

// toFeatureRow re-derives a full F-vector from a merged rollout/past record,
// used to build the next rolling window entry during inference.
func toFeatureRow(t []string, record climate.PastClimateRecord) []float64 {
	return featureRow(t, record)
}
