// Package gprob provides the shape, scoping and graph-op primitives
// that probability distributions over Gorgonia graphs are built from.
package gprob

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ShapeOf returns a node holding the runtime shape of x as a 1-tensor
// of ints. The static shape of the result is known at construction
// time; the value is produced when the graph runs. Scalar nodes have no
// shape tensor, since the graph cannot hold empty tensors.
func ShapeOf(x *G.Node) (*G.Node, error) {
	if x == nil {
		return nil, errors.New("shapeOf: nil input node")
	}

	op, err := newShapeOp(x.Dims())
	if err != nil {
		return nil, errors.Wrap(err, "shapeOf")
	}

	return G.ApplyOp(op, x)
}

// ReduceProd multiplies the elements of x along the axis along,
// removing that axis from the result. Reducing a 1-tensor produces a
// scalar.
func ReduceProd(x *G.Node, along int) (*G.Node, error) {
	if x == nil {
		return nil, errors.New("reduceProd: nil input node")
	}

	op, err := newReduceProdOp(along, x.Dims())
	if err != nil {
		return nil, errors.Wrap(err, "reduceProd")
	}

	return G.ApplyOp(op, x)
}

// Erf computes the elementwise error function of x.
func Erf(x *G.Node) (*G.Node, error) {
	if x == nil {
		return nil, errors.New("erf: nil input node")
	}

	return G.ApplyOp(newErfOp(), x)
}

// Erfc computes the elementwise complementary error function of x,
// erfc(x) = 1 - erf(x).
func Erfc(x *G.Node) (*G.Node, error) {
	if x == nil {
		return nil, errors.New("erfc: nil input node")
	}

	e, err := Erf(x)
	if err != nil {
		return nil, errors.Wrap(err, "erfc")
	}

	one, err := oneConstant(x)
	if err != nil {
		return nil, errors.Wrap(err, "erfc")
	}

	return G.Sub(one, e)
}

// Erfinv computes the elementwise inverse error function of x.
func Erfinv(x *G.Node) (*G.Node, error) {
	if x == nil {
		return nil, errors.New("erfinv: nil input node")
	}

	return G.ApplyOp(newErfinvOp(), x)
}

// Erfcinv computes the elementwise inverse complementary error
// function of x, erfcinv(x) = erfinv(1 - x).
func Erfcinv(x *G.Node) (*G.Node, error) {
	if x == nil {
		return nil, errors.New("erfcinv: nil input node")
	}

	one, err := oneConstant(x)
	if err != nil {
		return nil, errors.Wrap(err, "erfcinv")
	}

	arg, err := G.Sub(one, x)
	if err != nil {
		return nil, errors.Wrap(err, "erfcinv")
	}

	return Erfinv(arg)
}

// oneConstant returns the constant 1 with the dtype of x.
func oneConstant(x *G.Node) (*G.Node, error) {
	switch x.Dtype() {
	case tensor.Float64:
		return x.Graph().Constant(G.NewF64(1.0)), nil

	case tensor.Float32:
		return x.Graph().Constant(G.NewF32(1.0)), nil
	}

	return nil, errors.Errorf("dtype %v unsupported", x.Dtype())
}
