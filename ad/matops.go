package ad

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//matops.go holds the dense linear-algebra operations; the heavy kernels are
//delegated to gonum.

// MatMul returns the matrix product a · b.
func MatMul(a, b *Tensor) *Tensor {
	if a.cols != b.rows {
		panic(errShape)
	}
	out := result(a.rows, b.cols, a, b)
	am := mat.NewDense(a.rows, a.cols, a.data)
	bm := mat.NewDense(b.rows, b.cols, b.data)
	om := mat.NewDense(out.rows, out.cols, out.data)
	om.Mul(am, bm)
	if out.requires {
		out.back = func() {
			gm := mat.NewDense(out.rows, out.cols, out.grad)
			if a.requires {
				tmp := mat.NewDense(a.rows, a.cols, nil)
				tmp.Mul(gm, bm.T())
				floats.Add(a.grad, tmp.RawMatrix().Data)
			}
			if b.requires {
				tmp := mat.NewDense(b.rows, b.cols, nil)
				tmp.Mul(am.T(), gm)
				floats.Add(b.grad, tmp.RawMatrix().Data)
			}
		}
	}
	return out
}

// AddRow returns a with the 1 x C tensor row added to every row, the bias
// broadcast of a linear layer.
func AddRow(a, row *Tensor) *Tensor {
	if row.rows != 1 || row.cols != a.cols {
		panic(errShape)
	}
	out := result(a.rows, a.cols, a, row)
	for i := 0; i < a.rows; i++ {
		off := i * a.cols
		floats.AddTo(out.data[off:off+a.cols], a.data[off:off+a.cols], row.data)
	}
	if out.requires {
		out.back = func() {
			if a.requires {
				floats.Add(a.grad, out.grad)
			}
			if row.requires {
				for i := 0; i < a.rows; i++ {
					off := i * a.cols
					floats.Add(row.grad, out.grad[off:off+a.cols])
				}
			}
		}
	}
	return out
}

// ConcatCols returns the column-wise concatenation of tensors with equal
// row counts.
func ConcatCols(ts ...*Tensor) *Tensor {
	if len(ts) == 0 {
		panic(errShape)
	}
	if len(ts) == 1 {
		return ts[0]
	}
	rows := ts[0].rows
	cols := 0
	for _, t := range ts {
		if t.rows != rows {
			panic(errShape)
		}
		cols += t.cols
	}
	out := result(rows, cols, ts...)
	off := 0
	for _, t := range ts {
		for i := 0; i < rows; i++ {
			copy(out.data[i*cols+off:i*cols+off+t.cols], t.data[i*t.cols:(i+1)*t.cols])
		}
		off += t.cols
	}
	if out.requires {
		out.back = func() {
			o := 0
			for _, t := range ts {
				if t.requires {
					for i := 0; i < rows; i++ {
						floats.Add(t.grad[i*t.cols:(i+1)*t.cols], out.grad[i*cols+o:i*cols+o+t.cols])
					}
				}
				o += t.cols
			}
		}
	}
	return out
}
