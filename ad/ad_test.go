package ad

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

//numeric gradient check: builds the scalar twice per input component with
//the component displaced by +-eps and compares the central difference with
//the gradient reported by Backward.
func gradCheck(t *testing.T, rows, cols int, f func(x *Tensor) *Tensor) {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	x0 := make([]float64, rows*cols)
	for i := range x0 {
		x0[i] = rng.NormFloat64()
	}
	tp := NewTape()
	x := tp.NewVar(rows, cols, x0)
	y := f(x)
	y.Backward()
	grad := x.Grad()
	tp.Release()

	const eps = 1e-6
	for i := range x0 {
		eval := func(delta float64) float64 {
			d := append([]float64(nil), x0...)
			d[i] += delta
			tp := NewTape()
			defer tp.Release()
			return f(tp.NewVar(rows, cols, d)).Scalar()
		}
		num := (eval(eps) - eval(-eps)) / (2 * eps)
		require.InDeltaf(t, num, grad[i], 1e-5*(1+math.Abs(num)), "component %d", i)
	}
}

func TestElementwiseGradients(t *testing.T) {
	gradCheck(t, 2, 3, func(x *Tensor) *Tensor {
		y := Mul(x, x)
		y = Add(y, Scale(x, 0.5))
		return Sum(y)
	})
	gradCheck(t, 2, 2, func(x *Tensor) *Tensor {
		return Sum(Div(Exp(Scale(x, 0.3)), AddScalar(Mul(x, x), 2)))
	})
	gradCheck(t, 3, 1, func(x *Tensor) *Tensor {
		return Sum(Add(Sigmoid(x), Add(Tanh(x), SiLU(x))))
	})
	gradCheck(t, 2, 2, func(x *Tensor) *Tensor {
		return Sum(Sqrt(AddScalar(Mul(x, x), 1)))
	})
}

func TestMatMulGradient(t *testing.T) {
	gradCheck(t, 3, 4, func(x *Tensor) *Tensor {
		w := x.tape.NewConst(4, 2, []float64{0.3, -0.1, 0.7, 0.2, -0.5, 0.4, 0.1, 0.9})
		return Sum(SiLU(MatMul(x, w)))
	})
	// gradient with respect to the right operand
	gradCheck(t, 4, 2, func(x *Tensor) *Tensor {
		a := x.tape.NewConst(2, 4, []float64{1, 0.5, -1, 2, 0.1, 0.2, 0.3, 0.4})
		return Sum(Tanh(MatMul(a, x)))
	})
}

func TestRowOpsGradients(t *testing.T) {
	idx := []int{2, 0, 1, 2, 2}
	gradCheck(t, 3, 2, func(x *Tensor) *Tensor {
		return Sum(Mul(GatherRows(x, idx), GatherRows(x, idx)))
	})
	seg := []int{0, 1, 0, 1, 0}
	gradCheck(t, 5, 2, func(x *Tensor) *Tensor {
		return Sum(Mul(SegmentSum(x, seg, 2), SegmentMean(x, seg, 2)))
	})
	gradCheck(t, 4, 3, func(x *Tensor) *Tensor {
		// keep rows away from zero so the norm stays differentiable
		return Sum(RowNorm(AddScalar(Mul(x, x), 1)))
	})
	gradCheck(t, 4, 3, func(x *Tensor) *Tensor {
		shift := x.tape.NewConst(4, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
		return Sum(RowDot(x, Add(x, shift)))
	})
	gradCheck(t, 4, 2, func(x *Tensor) *Tensor {
		w := x.tape.NewConst(4, 1, []float64{0.1, -0.4, 2, 0.7})
		return Sum(MulCol(x, w))
	})
}

func TestConcatAndBias(t *testing.T) {
	gradCheck(t, 3, 2, func(x *Tensor) *Tensor {
		row := x.tape.NewConst(1, 4, []float64{0.5, -0.5, 1, 2})
		return Sum(Sigmoid(AddRow(ConcatCols(x, Mul(x, x)), row)))
	})
}

func TestClampGradient(t *testing.T) {
	tp := NewTape()
	defer tp.Release()
	x := tp.NewVar(1, 4, []float64{-2, -0.5, 0.5, 2})
	y := Sum(Clamp(x, -1, 1))
	y.Backward()
	require.Equal(t, []float64{0, 1, 1, 0}, x.Grad())
	require.Equal(t, []float64{-1, -0.5, 0.5, 1}, y.tape.nodes[1].Value())
}

func TestSegmentSumValues(t *testing.T) {
	tp := NewTape()
	defer tp.Release()
	x := tp.NewConst(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	s := SegmentSum(x, []int{1, 0, 1, 1}, 3)
	require.Equal(t, []float64{3, 4, 13, 16, 0, 0}, s.Value())
	m := SegmentMean(x, []int{1, 0, 1, 1}, 3)
	require.InDeltaSlice(t, []float64{3, 4, 13.0 / 3, 16.0 / 3, 0, 0}, m.Value(), 1e-12)
}

func TestCheckFinite(t *testing.T) {
	tp := NewTape()
	defer tp.Release()
	ok := tp.NewConst(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, ok.CheckFinite())
	bad := tp.NewConst(1, 2, []float64{1, math.Inf(1)})
	require.Error(t, bad.CheckFinite())
	nan := tp.NewConst(1, 1, []float64{math.NaN()})
	require.Error(t, nan.CheckFinite())
}

func TestReleaseFreesTape(t *testing.T) {
	tp := NewTape()
	x := tp.NewVar(2, 2, []float64{1, 2, 3, 4})
	Sum(Mul(x, x)).Backward()
	require.Equal(t, 3, tp.Len())
	tp.Release()
	require.Equal(t, 0, tp.Len())
	require.Panics(t, func() { tp.NewConst(1, 1, nil) })
}
