package ifs

// RowLen is the number of values in one transform row: six affine
// coefficients followed by the weight.
const RowLen = 7

// AffineTransform maps (x, y) to (A·x + B·y + C, D·x + E·y + F).
type AffineTransform struct {
	A, B, C float64
	D, E, F float64
}

// Apply returns the image of (x, y).
func (t AffineTransform) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.C, t.D*x + t.E*y + t.F
}

// IsConstant reports whether t sends every point to (C, F).
func (t AffineTransform) IsConstant() bool {
	return t.A == 0 && t.B == 0 && t.D == 0 && t.E == 0
}

// Coefficients returns a, b, c, d, e, f in row order.
func (t AffineTransform) Coefficients() [6]float64 {
	return [6]float64{t.A, t.B, t.C, t.D, t.E, t.F}
}

// WeightedTransform pairs a map with its raw, non-negative selection weight.
type WeightedTransform struct {
	Transform AffineTransform
	Weight    float64
}

// Row returns the transform as a seven-value row.
func (w WeightedTransform) Row() []float64 {
	c := w.Transform.Coefficients()
	return []float64{c[0], c[1], c[2], c[3], c[4], c[5], w.Weight}
}

func fromRow(row []float64) WeightedTransform {
	return WeightedTransform{
		Transform: AffineTransform{
			A: row[0], B: row[1], C: row[2],
			D: row[3], E: row[4], F: row[5],
		},
		Weight: row[6],
	}
}
