package gprob

import (
	"fmt"
	"hash"

	"github.com/chewxy/hm"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// reduceProdOp multiplies the elements of its input along one axis.
// The axis is dropped from the output shape, so reducing a 1-tensor
// yields a scalar. Float64 and float32 tensors are supported.
type reduceProdOp struct {
	axis int
	dims int
}

func newReduceProdOp(axis, dims int) (*reduceProdOp, error) {
	if dims < 1 {
		return nil, errors.Errorf("newReduceProdOp: expected input rank "+
			"to be > 0, got %v", dims)
	}
	if axis < 0 || axis >= dims {
		return nil, errors.Errorf("newReduceProdOp: axis [%v] out of "+
			"range for input rank %v", axis, dims)
	}

	return &reduceProdOp{axis: axis, dims: dims}, nil
}

func (r *reduceProdOp) Arity() int { return 1 }

func (r *reduceProdOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	in := G.TensorType{Dims: r.dims, Of: a}

	if r.dims == 1 {
		return hm.NewFnType(in, a)
	}

	return hm.NewFnType(in, G.TensorType{Dims: r.dims - 1, Of: a})
}

func (r *reduceProdOp) InferShape(in ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(r, len(in)); err != nil {
		return nil, errors.Wrap(err, "inferShape")
	}
	if in[0] == nil {
		return nil, errors.New("inferShape: nil input")
	}

	shape := in[0].(tensor.Shape).Clone()
	out := append(shape[:r.axis], shape[r.axis+1:]...)
	if len(out) == 0 {
		return tensor.ScalarShape(), nil
	}

	return out, nil
}

func (r *reduceProdOp) ReturnsPtr() bool { return false }

func (r *reduceProdOp) CallsExtern() bool { return false }

func (r *reduceProdOp) OverwritesInput() int { return -1 }

func (r *reduceProdOp) String() string {
	return fmt.Sprintf("ReduceProd{axis=%v}()", r.axis)
}

func (r *reduceProdOp) WriteHash(h hash.Hash) { fmt.Fprint(h, r.String()) }

func (r *reduceProdOp) Hashcode() uint32 { return SimpleHash(r) }

func (r *reduceProdOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := r.checkInputs(inputs...); err != nil {
		return nil, errors.Wrap(err, "do")
	}

	t := inputs[0].(tensor.Tensor)

	switch t.Dtype() {
	case tensor.Float64:
		return r.f64Kernel(t)

	case tensor.Float32:
		return r.f32Kernel(t)
	}

	return nil, errors.Errorf("do: dtype %v unsupported", t.Dtype())
}

func (r *reduceProdOp) f64Kernel(t tensor.Tensor) (G.Value, error) {
	if len(t.Shape()) == 1 {
		prod := 1.0
		for _, v := range t.Data().([]float64) {
			prod *= v
		}
		return G.NewF64(prod), nil
	}

	outShape := r.outShape(t.Shape())
	backing := make([]float64, tensor.ProdInts(outShape))
	for i := range backing {
		backing[i] = 1.0
	}
	out := tensor.NewDense(
		tensor.Float64,
		outShape,
		tensor.WithBacking(backing),
	)

	for i := 0; i < t.Size(); i++ {
		coords, err := tensor.Itol(i, t.Shape(), t.Strides())
		if err != nil {
			return nil, errors.Errorf("f64Kernel: could not get coords "+
				"at index %v", i)
		}

		v, err := t.At(coords...)
		if err != nil {
			return nil, errors.Errorf("f64Kernel: could not get element "+
				"at %v", coords)
		}

		outCoords := r.outCoords(coords)
		cur, err := out.At(outCoords...)
		if err != nil {
			return nil, errors.Errorf("f64Kernel: could not get output "+
				"element at %v", outCoords)
		}

		err = out.SetAt(cur.(float64)*v.(float64), outCoords...)
		if err != nil {
			return nil, errors.Errorf("f64Kernel: could not set output "+
				"element at %v", outCoords)
		}
	}

	return out, nil
}

func (r *reduceProdOp) f32Kernel(t tensor.Tensor) (G.Value, error) {
	if len(t.Shape()) == 1 {
		prod := float32(1.0)
		for _, v := range t.Data().([]float32) {
			prod *= v
		}
		return G.NewF32(prod), nil
	}

	outShape := r.outShape(t.Shape())
	backing := make([]float32, tensor.ProdInts(outShape))
	for i := range backing {
		backing[i] = 1.0
	}
	out := tensor.NewDense(
		tensor.Float32,
		outShape,
		tensor.WithBacking(backing),
	)

	for i := 0; i < t.Size(); i++ {
		coords, err := tensor.Itol(i, t.Shape(), t.Strides())
		if err != nil {
			return nil, errors.Errorf("f32Kernel: could not get coords "+
				"at index %v", i)
		}

		v, err := t.At(coords...)
		if err != nil {
			return nil, errors.Errorf("f32Kernel: could not get element "+
				"at %v", coords)
		}

		outCoords := r.outCoords(coords)
		cur, err := out.At(outCoords...)
		if err != nil {
			return nil, errors.Errorf("f32Kernel: could not get output "+
				"element at %v", outCoords)
		}

		err = out.SetAt(cur.(float32)*v.(float32), outCoords...)
		if err != nil {
			return nil, errors.Errorf("f32Kernel: could not set output "+
				"element at %v", outCoords)
		}
	}

	return out, nil
}

// outShape drops the reduced axis from shape.
func (r *reduceProdOp) outShape(shape tensor.Shape) tensor.Shape {
	out := shape.Clone()
	return append(out[:r.axis], out[r.axis+1:]...)
}

// outCoords drops the reduced axis from a coordinate vector.
func (r *reduceProdOp) outCoords(coords []int) []int {
	out := make([]int, 0, len(coords)-1)
	out = append(out, coords[:r.axis]...)
	out = append(out, coords[r.axis+1:]...)
	return out
}

func (r *reduceProdOp) checkInputs(inputs ...G.Value) error {
	if err := CheckArity(r, len(inputs)); err != nil {
		return err
	}

	t, ok := inputs[0].(tensor.Tensor)
	if !ok {
		return errors.Errorf("expected tensor, received %T", inputs[0])
	} else if t == nil {
		return errors.New("cannot reduce nil tensor")
	} else if t.Size() == 0 {
		return errors.New("cannot reduce empty tensor")
	} else if len(t.Shape()) != r.dims {
		return errors.Errorf("expected input rank %v but got shape %v",
			r.dims, t.Shape())
	} else if t.Dtype() != tensor.Float64 && t.Dtype() != tensor.Float32 {
		return errors.Errorf("dtype %v unsupported", t.Dtype())
	}

	return nil
}
