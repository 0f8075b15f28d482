package generator

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
)

// StandardScaler standardizes each column to zero mean, unit variance, fit on
// a training slice and reused to transform validation/test slices and,
// symmetrically, to invert a prediction back to the original scale
// property 5, scaler invertibility).
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// FitStandardScaler computes per-column mean and standard deviation over rows.
func FitStandardScaler(rows [][]float64) (*StandardScaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cannot fit a scaler on zero rows")
	}
	n := len(rows[0])
	mean := make([]float64, n)
	for _, row := range rows {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(rows))
	}

	std := make([]float64, n)
	for _, row := range rows {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(len(rows)))
		if std[j] == 0 {
			std[j] = 1 // a constant column must not divide to NaN/Inf
		}
	}

	return &StandardScaler{Mean: mean, Std: std}, nil
}

// Transform scales a single row using the fitted mean/std.
func (s *StandardScaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = (v - s.Mean[i]) / s.Std[i]
	}
	return out
}

// TransformAll scales every row in rows.
func (s *StandardScaler) TransformAll(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.Transform(row)
	}
	return out
}

// InverseTransform undoes Transform: InverseTransform(Transform(v)) ≈ v.
func (s *StandardScaler) InverseTransform(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = v*s.Std[i] + s.Mean[i]
	}
	return out
}

// Marshal serializes the scaler through encoding/gob.
func (s *StandardScaler) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("marshaling scaler: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalStandardScaler restores a scaler previously produced by Marshal.
func UnmarshalStandardScaler(data []byte) (*StandardScaler, error) {
	var s StandardScaler
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("unmarshaling scaler: %w", err)
	}
	return &s, nil
}
