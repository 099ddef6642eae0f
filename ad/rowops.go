package ad

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

//rowops.go holds the gather/scatter and per-row reductions that express
//graph neighborhoods: atom states gathered onto bonds, bond messages
//scatter-summed back onto atoms, and per-graph pooling over batch segments.

// GatherRows returns the tensor whose row i is row idx[i] of a.
func GatherRows(a *Tensor, idx []int) *Tensor {
	out := result(len(idx), a.cols, a)
	for i, p := range idx {
		if p < 0 || p >= a.rows {
			panic(errIndex)
		}
		copy(out.data[i*a.cols:(i+1)*a.cols], a.data[p*a.cols:(p+1)*a.cols])
	}
	if out.requires {
		ix := append([]int(nil), idx...)
		out.back = func() {
			for i, p := range ix {
				floats.Add(a.grad[p*a.cols:(p+1)*a.cols], out.grad[i*a.cols:(i+1)*a.cols])
			}
		}
	}
	return out
}

// SegmentSum returns the nSeg x C tensor whose row s is the sum of the rows
// of a with seg[i] == s. Rows of empty segments are zero. The result does
// not depend on the order of rows within a segment beyond floating-point
// summation order.
func SegmentSum(a *Tensor, seg []int, nSeg int) *Tensor {
	if len(seg) != a.rows || nSeg <= 0 {
		panic(errShape)
	}
	out := result(nSeg, a.cols, a)
	for i, s := range seg {
		if s < 0 || s >= nSeg {
			panic(errIndex)
		}
		floats.Add(out.data[s*a.cols:(s+1)*a.cols], a.data[i*a.cols:(i+1)*a.cols])
	}
	if out.requires {
		sg := append([]int(nil), seg...)
		out.back = func() {
			for i, s := range sg {
				floats.Add(a.grad[i*a.cols:(i+1)*a.cols], out.grad[s*a.cols:(s+1)*a.cols])
			}
		}
	}
	return out
}

// SegmentMean is SegmentSum divided by each segment's row count. Rows of
// empty segments are zero.
func SegmentMean(a *Tensor, seg []int, nSeg int) *Tensor {
	if len(seg) != a.rows || nSeg <= 0 {
		panic(errShape)
	}
	counts := make([]float64, nSeg)
	for _, s := range seg {
		if s < 0 || s >= nSeg {
			panic(errIndex)
		}
		counts[s]++
	}
	out := result(nSeg, a.cols, a)
	for i, s := range seg {
		floats.AddScaled(out.data[s*a.cols:(s+1)*a.cols], 1/counts[s], a.data[i*a.cols:(i+1)*a.cols])
	}
	if out.requires {
		sg := append([]int(nil), seg...)
		out.back = func() {
			for i, s := range sg {
				floats.AddScaled(a.grad[i*a.cols:(i+1)*a.cols], 1/counts[s], out.grad[s*a.cols:(s+1)*a.cols])
			}
		}
	}
	return out
}

// RowNorm returns the m x 1 tensor of Euclidean norms of the rows of a.
// A zero row makes the gradient blow up; upstream overlap checks keep that
// from happening with valid structures.
func RowNorm(a *Tensor) *Tensor {
	out := result(a.rows, 1, a)
	for i := 0; i < a.rows; i++ {
		out.data[i] = floats.Norm(a.data[i*a.cols:(i+1)*a.cols], 2)
	}
	if out.requires {
		out.back = func() {
			for i := 0; i < a.rows; i++ {
				n := out.data[i]
				g := out.grad[i]
				for j := 0; j < a.cols; j++ {
					a.grad[i*a.cols+j] += g * a.data[i*a.cols+j] / n
				}
			}
		}
	}
	return out
}

// RowDot returns the m x 1 tensor of row-wise dot products of a and b.
func RowDot(a, b *Tensor) *Tensor {
	sameShape(a, b)
	out := result(a.rows, 1, a, b)
	for i := 0; i < a.rows; i++ {
		out.data[i] = floats.Dot(a.data[i*a.cols:(i+1)*a.cols], b.data[i*b.cols:(i+1)*b.cols])
	}
	if out.requires {
		out.back = func() {
			for i := 0; i < a.rows; i++ {
				g := out.grad[i]
				if a.requires {
					floats.AddScaled(a.grad[i*a.cols:(i+1)*a.cols], g, b.data[i*b.cols:(i+1)*b.cols])
				}
				if b.requires {
					floats.AddScaled(b.grad[i*b.cols:(i+1)*b.cols], g, a.data[i*a.cols:(i+1)*a.cols])
				}
			}
		}
	}
	return out
}

// MulCol scales row i of a by w[i], with w an m x 1 tensor.
func MulCol(a, w *Tensor) *Tensor {
	if w.rows != a.rows || w.cols != 1 {
		panic(errShape)
	}
	out := result(a.rows, a.cols, a, w)
	for i := 0; i < a.rows; i++ {
		floats.ScaleTo(out.data[i*a.cols:(i+1)*a.cols], w.data[i], a.data[i*a.cols:(i+1)*a.cols])
	}
	if out.requires {
		out.back = func() {
			for i := 0; i < a.rows; i++ {
				if a.requires {
					floats.AddScaled(a.grad[i*a.cols:(i+1)*a.cols], w.data[i], out.grad[i*a.cols:(i+1)*a.cols])
				}
				if w.requires {
					w.grad[i] += floats.Dot(out.grad[i*a.cols:(i+1)*a.cols], a.data[i*a.cols:(i+1)*a.cols])
				}
			}
		}
	}
	return out
}

// IsFinite reports whether v is neither NaN nor Inf; convenience for
// callers validating plain scalars alongside tensors.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
