//Package ad implements the reverse-mode automatic differentiation used by
//the graph-network models: a tape of dense row-major tensors whose
//operations record backward closures, so the energy of a structure can be
//differentiated through feature construction, message passing and readout
//in one sweep. The tape owns every intermediate; releasing it frees the
//whole computational graph, which is what keeps repeated force evaluations
//from accumulating memory.
package ad

import (
	"fmt"
	"math"
)

// Tape owns the tensors of one computation. Operations append their result
// to the tape of their operands; Backward walks the tape in reverse. A Tape
// must not be shared between concurrent computations.
type Tape struct {
	nodes    []*Tensor
	released bool
}

// NewTape returns an empty tape.
func NewTape() *Tape {
	return &Tape{}
}

// Release drops every tensor recorded on the tape, including their data and
// gradient buffers. The tape must not be used afterwards.
func (tp *Tape) Release() {
	for _, n := range tp.nodes {
		n.data = nil
		n.grad = nil
		n.back = nil
		n.tape = nil
	}
	tp.nodes = nil
	tp.released = true
}

// Len returns the number of tensors recorded so far.
func (tp *Tape) Len() int { return len(tp.nodes) }

// Tensor is a dense row-major matrix recorded on a tape. Vectors are 1-row
// or 1-column tensors; scalars are 1x1.
type Tensor struct {
	tape       *Tape
	rows, cols int
	data       []float64
	grad       []float64
	requires   bool
	back       func()
}

func (tp *Tape) register(rows, cols int, data []float64, requires bool) *Tensor {
	if tp.released {
		panic(errReleased)
	}
	if rows <= 0 || cols <= 0 {
		panic(errShape)
	}
	if data == nil {
		data = make([]float64, rows*cols)
	} else if len(data) != rows*cols {
		panic(errShape)
	}
	t := &Tensor{tape: tp, rows: rows, cols: cols, data: data, requires: requires}
	if requires {
		t.grad = make([]float64, rows*cols)
	}
	tp.nodes = append(tp.nodes, t)
	return t
}

// NewConst records a constant (non-differentiated) tensor. The data slice
// is copied; nil data yields zeros.
func (tp *Tape) NewConst(rows, cols int, data []float64) *Tensor {
	var d []float64
	if data != nil {
		d = append([]float64(nil), data...)
	}
	return tp.register(rows, cols, d, false)
}

// NewVar records a differentiated input tensor. The data slice is copied;
// nil data yields zeros. Its gradient is available after Backward.
func (tp *Tape) NewVar(rows, cols int, data []float64) *Tensor {
	var d []float64
	if data != nil {
		d = append([]float64(nil), data...)
	}
	return tp.register(rows, cols, d, true)
}

// result allocates the output of an op; it requires grad when any operand
// does.
func result(rows, cols int, operands ...*Tensor) *Tensor {
	req := false
	tp := operands[0].tape
	for _, o := range operands {
		if o.tape != tp {
			panic(errMixedTapes)
		}
		if o.requires {
			req = true
		}
	}
	return tp.register(rows, cols, nil, req)
}

// Tape returns the tape the tensor is recorded on.
func (t *Tensor) Tape() *Tape { return t.tape }

// Rows returns the number of rows.
func (t *Tensor) Rows() int { return t.rows }

// Cols returns the number of columns.
func (t *Tensor) Cols() int { return t.cols }

// At returns element (i, j).
func (t *Tensor) At(i, j int) float64 {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		panic(errIndex)
	}
	return t.data[i*t.cols+j]
}

// Value returns a copy of the tensor's data, row-major.
func (t *Tensor) Value() []float64 {
	return append([]float64(nil), t.data...)
}

// Scalar returns the value of a 1x1 tensor.
func (t *Tensor) Scalar() float64 {
	if t.rows != 1 || t.cols != 1 {
		panic(errShape)
	}
	return t.data[0]
}

// Grad returns a copy of the accumulated gradient, row-major. It returns
// nil for tensors that do not require gradients.
func (t *Tensor) Grad() []float64 {
	if t.grad == nil {
		return nil
	}
	return append([]float64(nil), t.grad...)
}

// GradAt returns the gradient element (i, j).
func (t *Tensor) GradAt(i, j int) float64 {
	if t.grad == nil {
		return 0
	}
	return t.grad[i*t.cols+j]
}

// CheckFinite returns an error naming the first NaN or Inf entry, or nil if
// every entry is finite.
func (t *Tensor) CheckFinite() error {
	for i, v := range t.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value %v at row %d col %d", v, i/t.cols, i%t.cols)
		}
	}
	return nil
}

// Backward seeds the gradient of a scalar tensor with 1 and propagates
// through every recorded operation in reverse order. It may be called once
// per tape.
func (t *Tensor) Backward() {
	if t.rows != 1 || t.cols != 1 {
		panic(errShape)
	}
	if !t.requires {
		panic(errNoGrad)
	}
	t.grad[0] = 1
	nodes := t.tape.nodes
	for i := len(nodes) - 1; i >= 0; i-- {
		if nodes[i].back != nil {
			nodes[i].back()
		}
	}
}

type adPanic string

func (p adPanic) Error() string { return string(p) }

const (
	errShape      = adPanic("ad: tensor shape mismatch")
	errIndex      = adPanic("ad: index out of range")
	errMixedTapes = adPanic("ad: operands recorded on different tapes")
	errReleased   = adPanic("ad: use of a released tape")
	errNoGrad     = adPanic("ad: backward from a constant tensor")
)
