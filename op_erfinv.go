package gprob

import (
	"fmt"
	"hash"
	"math"

	"github.com/chewxy/hm"
	"github.com/pkg/errors"
	"github.com/samuelfneumann/math32"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// erfinvOp computes the inverse error function elementwise. Scalar and
// tensor inputs of dtype float64 or float32 are supported. Inputs
// outside [-1, 1] produce NaN and the endpoints produce infinities,
// following the underlying math library.
type erfinvOp struct{}

func newErfinvOp() *erfinvOp { return &erfinvOp{} }

func (e *erfinvOp) Arity() int { return 1 }

func (e *erfinvOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a)
}

func (e *erfinvOp) InferShape(in ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(e, len(in)); err != nil {
		return nil, errors.Wrap(err, "inferShape")
	}
	if in[0] == nil {
		return nil, errors.New("inferShape: nil input")
	}

	return in[0].(tensor.Shape), nil
}

func (e *erfinvOp) ReturnsPtr() bool { return false }

func (e *erfinvOp) CallsExtern() bool { return false }

func (e *erfinvOp) OverwritesInput() int { return -1 }

func (e *erfinvOp) String() string { return "Erfinv()" }

func (e *erfinvOp) WriteHash(h hash.Hash) { fmt.Fprint(h, e.String()) }

func (e *erfinvOp) Hashcode() uint32 { return SimpleHash(e) }

// SymDiff constructs the symbolic derivative of the inverse error
// function.
func (e *erfinvOp) SymDiff(inputs G.Nodes, output,
	grad *G.Node) (G.Nodes, error) {
	if err := CheckArity(e, len(inputs)); err != nil {
		return nil, errors.Wrap(err, "symDiff")
	}

	nodes := make(G.Nodes, 1)
	diff, err := G.ApplyOp(&erfinvDiffOp{}, inputs[0], grad)
	nodes[0] = diff

	return nodes, err
}

func (e *erfinvOp) DiffWRT(inputs int) []bool {
	if inputs != 1 {
		panic(fmt.Sprintf("erfinv supports one input, got %d instead",
			inputs))
	}

	return []bool{true}
}

func (e *erfinvOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := checkPointwiseInputs(e, inputs...); err != nil {
		return nil, errors.Wrap(err, "do")
	}

	switch v := inputs[0].(type) {
	case *G.F64:
		return G.NewF64(math.Erfinv(float64(*v))), nil

	case *G.F32:
		return G.NewF32(math32.Erfinv(float32(*v))), nil
	}

	t := inputs[0].(tensor.Tensor)
	switch t.Dtype() {
	case tensor.Float64:
		in := t.Data().([]float64)
		backing := make([]float64, len(in))
		for i := range in {
			backing[i] = math.Erfinv(in[i])
		}
		return tensor.NewDense(
			tensor.Float64,
			t.Shape().Clone(),
			tensor.WithBacking(backing),
		), nil

	case tensor.Float32:
		in := t.Data().([]float32)
		backing := make([]float32, len(in))
		for i := range in {
			backing[i] = math32.Erfinv(in[i])
		}
		return tensor.NewDense(
			tensor.Float32,
			t.Shape().Clone(),
			tensor.WithBacking(backing),
		), nil
	}

	return nil, errors.Errorf("do: dtype %v unsupported", t.Dtype())
}

// erfinvDiffOp computes the derivative of the inverse error function
// scaled by the incoming gradient:
//
//	d/dz erfinv(z) = sqrt(pi)/2 * exp(erfinv(z)^2)
type erfinvDiffOp struct{}

func (e *erfinvDiffOp) Arity() int { return 2 }

func (e *erfinvDiffOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a, a)
}

func (e *erfinvDiffOp) InferShape(in ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(e, len(in)); err != nil {
		return nil, errors.Wrap(err, "inferShape")
	}
	if in[0] == nil {
		return nil, errors.New("inferShape: nil input")
	}

	return in[0].(tensor.Shape), nil
}

func (e *erfinvDiffOp) ReturnsPtr() bool { return false }

func (e *erfinvDiffOp) CallsExtern() bool { return false }

func (e *erfinvDiffOp) OverwritesInput() int { return -1 }

func (e *erfinvDiffOp) String() string { return "ErfinvDiff()" }

func (e *erfinvDiffOp) WriteHash(h hash.Hash) { fmt.Fprint(h, e.String()) }

func (e *erfinvDiffOp) Hashcode() uint32 { return SimpleHash(e) }

func (e *erfinvDiffOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := checkDiffInputs(e, inputs...); err != nil {
		return nil, errors.Wrap(err, "do")
	}

	switch v := inputs[0].(type) {
	case *G.F64:
		grad := float64(*(inputs[1].(*G.F64)))
		return G.NewF64(grad * erfinvGradF64(float64(*v))), nil

	case *G.F32:
		grad := float32(*(inputs[1].(*G.F32)))
		return G.NewF32(grad * erfinvGradF32(float32(*v))), nil
	}

	t := inputs[0].(tensor.Tensor)
	grad := inputs[1].(tensor.Tensor)

	switch t.Dtype() {
	case tensor.Float64:
		in := t.Data().([]float64)
		g := grad.Data().([]float64)
		backing := make([]float64, len(in))
		for i := range in {
			backing[i] = g[i] * erfinvGradF64(in[i])
		}
		return tensor.NewDense(
			tensor.Float64,
			t.Shape().Clone(),
			tensor.WithBacking(backing),
		), nil

	case tensor.Float32:
		in := t.Data().([]float32)
		g := grad.Data().([]float32)
		backing := make([]float32, len(in))
		for i := range in {
			backing[i] = g[i] * erfinvGradF32(in[i])
		}
		return tensor.NewDense(
			tensor.Float32,
			t.Shape().Clone(),
			tensor.WithBacking(backing),
		), nil
	}

	return nil, errors.Errorf("do: dtype %v unsupported", t.Dtype())
}

func erfinvGradF64(z float64) float64 {
	return math.Sqrt(math.Pi) / 2 * math.Exp(math.Pow(math.Erfinv(z), 2))
}

func erfinvGradF32(z float32) float32 {
	return math32.Sqrt(math32.Pi) / 2 *
		math32.Exp(math32.Pow(math32.Erfinv(z), 2))
}
