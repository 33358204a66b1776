package gprob

import (
	"fmt"
	"hash"
	"math"

	"github.com/chewxy/hm"
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// erfOp computes the error function elementwise. Scalar and tensor
// inputs of dtype float64 or float32 are supported.
type erfOp struct{}

func newErfOp() *erfOp { return &erfOp{} }

func (e *erfOp) Arity() int { return 1 }

func (e *erfOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a)
}

func (e *erfOp) InferShape(in ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(e, len(in)); err != nil {
		return nil, errors.Wrap(err, "inferShape")
	}
	if in[0] == nil {
		return nil, errors.New("inferShape: nil input")
	}

	return in[0].(tensor.Shape), nil
}

func (e *erfOp) ReturnsPtr() bool { return false }

func (e *erfOp) CallsExtern() bool { return false }

func (e *erfOp) OverwritesInput() int { return -1 }

func (e *erfOp) String() string { return "Erf()" }

func (e *erfOp) WriteHash(h hash.Hash) { fmt.Fprint(h, e.String()) }

func (e *erfOp) Hashcode() uint32 { return SimpleHash(e) }

// SymDiff constructs the symbolic derivative of the error function.
func (e *erfOp) SymDiff(inputs G.Nodes, output,
	grad *G.Node) (G.Nodes, error) {
	if err := CheckArity(e, len(inputs)); err != nil {
		return nil, errors.Wrap(err, "symDiff")
	}

	nodes := make(G.Nodes, 1)
	diff, err := G.ApplyOp(&erfDiffOp{}, inputs[0], grad)
	nodes[0] = diff

	return nodes, err
}

func (e *erfOp) DiffWRT(inputs int) []bool {
	if inputs != 1 {
		panic(fmt.Sprintf("erf supports one input, got %d instead",
			inputs))
	}

	return []bool{true}
}

func (e *erfOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := checkPointwiseInputs(e, inputs...); err != nil {
		return nil, errors.Wrap(err, "do")
	}

	switch v := inputs[0].(type) {
	case *G.F64:
		return G.NewF64(math.Erf(float64(*v))), nil

	case *G.F32:
		return G.NewF32(math32.Erf(float32(*v))), nil
	}

	t := inputs[0].(tensor.Tensor)
	switch t.Dtype() {
	case tensor.Float64:
		in := t.Data().([]float64)
		backing := make([]float64, len(in))
		for i := range in {
			backing[i] = math.Erf(in[i])
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
			backing[i] = math32.Erf(in[i])
		}
		return tensor.NewDense(
			tensor.Float32,
			t.Shape().Clone(),
			tensor.WithBacking(backing),
		), nil
	}

	return nil, errors.Errorf("do: dtype %v unsupported", t.Dtype())
}

// erfDiffOp computes the derivative of the error function scaled by
// the incoming gradient:
//
//	d/dx erf(x) = 2/sqrt(pi) * exp(-x^2)
type erfDiffOp struct{}

func (e *erfDiffOp) Arity() int { return 2 }

func (e *erfDiffOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a, a)
}

func (e *erfDiffOp) InferShape(in ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(e, len(in)); err != nil {
		return nil, errors.Wrap(err, "inferShape")
	}
	if in[0] == nil {
		return nil, errors.New("inferShape: nil input")
	}

	return in[0].(tensor.Shape), nil
}

func (e *erfDiffOp) ReturnsPtr() bool { return false }

func (e *erfDiffOp) CallsExtern() bool { return false }

func (e *erfDiffOp) OverwritesInput() int { return -1 }

func (e *erfDiffOp) String() string { return "ErfDiff()" }

func (e *erfDiffOp) WriteHash(h hash.Hash) { fmt.Fprint(h, e.String()) }

func (e *erfDiffOp) Hashcode() uint32 { return SimpleHash(e) }

func (e *erfDiffOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := checkDiffInputs(e, inputs...); err != nil {
		return nil, errors.Wrap(err, "do")
	}

	switch v := inputs[0].(type) {
	case *G.F64:
		grad := float64(*(inputs[1].(*G.F64)))
		return G.NewF64(grad * erfGradF64(float64(*v))), nil

	case *G.F32:
		grad := float32(*(inputs[1].(*G.F32)))
		return G.NewF32(grad * erfGradF32(float32(*v))), nil
	}

	t := inputs[0].(tensor.Tensor)
	grad := inputs[1].(tensor.Tensor)

	switch t.Dtype() {
	case tensor.Float64:
		in := t.Data().([]float64)
		g := grad.Data().([]float64)
		backing := make([]float64, len(in))
		for i := range in {
			backing[i] = g[i] * erfGradF64(in[i])
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
			backing[i] = g[i] * erfGradF32(in[i])
		}
		return tensor.NewDense(
			tensor.Float32,
			t.Shape().Clone(),
			tensor.WithBacking(backing),
		), nil
	}

	return nil, errors.Errorf("do: dtype %v unsupported", t.Dtype())
}

func erfGradF64(x float64) float64 {
	return 2 / math.Sqrt(math.Pi) * math.Exp(-math.Pow(x, 2))
}

func erfGradF32(x float32) float32 {
	return 2 / math32.Sqrt(math32.Pi) * math32.Exp(-math32.Pow(x, 2))
}

// checkPointwiseInputs validates the single input of a pointwise op:
// a float scalar or a non-empty float tensor.
func checkPointwiseInputs(op G.Op, inputs ...G.Value) error {
	if err := CheckArity(op, len(inputs)); err != nil {
		return err
	}

	switch v := inputs[0].(type) {
	case *G.F64, *G.F32:
		return nil

	case tensor.Tensor:
		if v == nil || v.Size() == 0 {
			return errors.New("tensor does not have any elements")
		}
		if v.Dtype() != tensor.Float64 && v.Dtype() != tensor.Float32 {
			return errors.Errorf("dtype %v unsupported", v.Dtype())
		}
		return nil
	}

	return errors.Errorf("expected input to be a float scalar or "+
		"tensor, got %T", inputs[0])
}

// checkDiffInputs validates the input and gradient of a pointwise diff
// op, which must hold values of the same kind.
func checkDiffInputs(op G.Op, inputs ...G.Value) error {
	if err := CheckArity(op, len(inputs)); err != nil {
		return err
	}

	switch v := inputs[0].(type) {
	case *G.F64:
		if _, ok := inputs[1].(*G.F64); !ok {
			return errors.Errorf("expected gradient to be a *F64, got %T",
				inputs[1])
		}
		return nil

	case *G.F32:
		if _, ok := inputs[1].(*G.F32); !ok {
			return errors.Errorf("expected gradient to be a *F32, got %T",
				inputs[1])
		}
		return nil

	case tensor.Tensor:
		if v == nil || v.Size() == 0 {
			return errors.New("tensor does not have any elements")
		}
		if v.Dtype() != tensor.Float64 && v.Dtype() != tensor.Float32 {
			return errors.Errorf("dtype %v unsupported", v.Dtype())
		}

		grad, ok := inputs[1].(tensor.Tensor)
		if !ok || grad == nil {
			return errors.Errorf("expected gradient to be a tensor, "+
				"got %T", inputs[1])
		}
		if !grad.Shape().Eq(v.Shape()) {
			return errors.Errorf("expected gradient to have shape %v "+
				"but got %v", v.Shape(), grad.Shape())
		}
		return nil
	}

	return errors.Errorf("expected input to be a float scalar or "+
		"tensor, got %T", inputs[0])
}
