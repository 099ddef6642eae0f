package ad

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

//ops.go holds the elementwise and scalar operations. Each op computes its
//value eagerly and, when gradients are needed, records a closure that
//accumulates into its operands' gradients.

func sameShape(a, b *Tensor) {
	if a.rows != b.rows || a.cols != b.cols {
		panic(errShape)
	}
}

// Add returns a + b, elementwise.
func Add(a, b *Tensor) *Tensor {
	sameShape(a, b)
	out := result(a.rows, a.cols, a, b)
	copy(out.data, a.data)
	floats.Add(out.data, b.data)
	if out.requires {
		out.back = func() {
			if a.requires {
				floats.Add(a.grad, out.grad)
			}
			if b.requires {
				floats.Add(b.grad, out.grad)
			}
		}
	}
	return out
}

// Sub returns a - b, elementwise.
func Sub(a, b *Tensor) *Tensor {
	sameShape(a, b)
	out := result(a.rows, a.cols, a, b)
	floats.SubTo(out.data, a.data, b.data)
	if out.requires {
		out.back = func() {
			if a.requires {
				floats.Add(a.grad, out.grad)
			}
			if b.requires {
				floats.Sub(b.grad, out.grad)
			}
		}
	}
	return out
}

// Mul returns a * b, elementwise.
func Mul(a, b *Tensor) *Tensor {
	sameShape(a, b)
	out := result(a.rows, a.cols, a, b)
	floats.MulTo(out.data, a.data, b.data)
	if out.requires {
		out.back = func() {
			if a.requires {
				for i := range a.grad {
					a.grad[i] += out.grad[i] * b.data[i]
				}
			}
			if b.requires {
				for i := range b.grad {
					b.grad[i] += out.grad[i] * a.data[i]
				}
			}
		}
	}
	return out
}

// Div returns a / b, elementwise.
func Div(a, b *Tensor) *Tensor {
	sameShape(a, b)
	out := result(a.rows, a.cols, a, b)
	floats.DivTo(out.data, a.data, b.data)
	if out.requires {
		out.back = func() {
			if a.requires {
				for i := range a.grad {
					a.grad[i] += out.grad[i] / b.data[i]
				}
			}
			if b.requires {
				for i := range b.grad {
					b.grad[i] -= out.grad[i] * a.data[i] / (b.data[i] * b.data[i])
				}
			}
		}
	}
	return out
}

// Neg returns -a.
func Neg(a *Tensor) *Tensor {
	return Scale(a, -1)
}

// Scale returns c * a.
func Scale(a *Tensor, c float64) *Tensor {
	out := result(a.rows, a.cols, a)
	floats.ScaleTo(out.data, c, a.data)
	if out.requires {
		out.back = func() {
			floats.AddScaled(a.grad, c, out.grad)
		}
	}
	return out
}

// AddScalar returns a + c, elementwise.
func AddScalar(a *Tensor, c float64) *Tensor {
	out := result(a.rows, a.cols, a)
	copy(out.data, a.data)
	floats.AddConst(c, out.data)
	if out.requires {
		out.back = func() {
			floats.Add(a.grad, out.grad)
		}
	}
	return out
}

// Exp returns exp(a), elementwise.
func Exp(a *Tensor) *Tensor {
	out := result(a.rows, a.cols, a)
	for i, v := range a.data {
		out.data[i] = math.Exp(v)
	}
	if out.requires {
		out.back = func() {
			for i := range a.grad {
				a.grad[i] += out.grad[i] * out.data[i]
			}
		}
	}
	return out
}

// Sqrt returns the elementwise square root of a.
func Sqrt(a *Tensor) *Tensor {
	out := result(a.rows, a.cols, a)
	for i, v := range a.data {
		out.data[i] = math.Sqrt(v)
	}
	if out.requires {
		out.back = func() {
			for i := range a.grad {
				a.grad[i] += out.grad[i] / (2 * out.data[i])
			}
		}
	}
	return out
}

// Sigmoid returns 1/(1+exp(-a)), elementwise.
func Sigmoid(a *Tensor) *Tensor {
	out := result(a.rows, a.cols, a)
	for i, v := range a.data {
		out.data[i] = 1 / (1 + math.Exp(-v))
	}
	if out.requires {
		out.back = func() {
			for i := range a.grad {
				s := out.data[i]
				a.grad[i] += out.grad[i] * s * (1 - s)
			}
		}
	}
	return out
}

// Tanh returns tanh(a), elementwise.
func Tanh(a *Tensor) *Tensor {
	out := result(a.rows, a.cols, a)
	for i, v := range a.data {
		out.data[i] = math.Tanh(v)
	}
	if out.requires {
		out.back = func() {
			for i := range a.grad {
				y := out.data[i]
				a.grad[i] += out.grad[i] * (1 - y*y)
			}
		}
	}
	return out
}

// SiLU returns a * sigmoid(a), the swish activation, elementwise.
func SiLU(a *Tensor) *Tensor {
	out := result(a.rows, a.cols, a)
	sig := make([]float64, len(a.data))
	for i, v := range a.data {
		sig[i] = 1 / (1 + math.Exp(-v))
		out.data[i] = v * sig[i]
	}
	if out.requires {
		out.back = func() {
			for i := range a.grad {
				s := sig[i]
				a.grad[i] += out.grad[i] * s * (1 + a.data[i]*(1-s))
			}
		}
	}
	return out
}

// Clamp limits a to [lo, hi], elementwise. Gradients pass through entries
// that were already inside the interval and vanish for clamped ones.
func Clamp(a *Tensor, lo, hi float64) *Tensor {
	out := result(a.rows, a.cols, a)
	for i, v := range a.data {
		switch {
		case v < lo:
			out.data[i] = lo
		case v > hi:
			out.data[i] = hi
		default:
			out.data[i] = v
		}
	}
	if out.requires {
		out.back = func() {
			for i := range a.grad {
				if v := a.data[i]; v >= lo && v <= hi {
					a.grad[i] += out.grad[i]
				}
			}
		}
	}
	return out
}

// Sum returns the sum of all elements as a 1x1 tensor.
func Sum(a *Tensor) *Tensor {
	out := result(1, 1, a)
	out.data[0] = floats.Sum(a.data)
	if out.requires {
		out.back = func() {
			floats.AddConst(out.grad[0], a.grad)
		}
	}
	return out
}
