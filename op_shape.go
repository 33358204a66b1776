package gprob

import (
	"fmt"
	"hash"

	"github.com/chewxy/hm"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// shapeOp reads the runtime shape of its input into a 1-tensor of
// ints. The rank of the input is fixed when the op is constructed.
type shapeOp struct {
	dims int
}

func newShapeOp(dims int) (*shapeOp, error) {
	if dims < 1 {
		return nil, errors.Errorf("newShapeOp: expected input rank to be "+
			"> 0, got %v", dims)
	}

	return &shapeOp{dims: dims}, nil
}

func (s *shapeOp) Arity() int { return 1 }

func (s *shapeOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	in := G.TensorType{Dims: s.dims, Of: a}
	out := G.TensorType{Dims: 1, Of: tensor.Int}

	return hm.NewFnType(in, out)
}

func (s *shapeOp) InferShape(in ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(s, len(in)); err != nil {
		return nil, errors.Wrap(err, "inferShape")
	}
	if in[0] == nil {
		return nil, errors.New("inferShape: nil input")
	}

	shape := in[0].(tensor.Shape)

	return tensor.Shape{shape.Dims()}, nil
}

func (s *shapeOp) ReturnsPtr() bool { return false }

func (s *shapeOp) CallsExtern() bool { return false }

func (s *shapeOp) OverwritesInput() int { return -1 }

func (s *shapeOp) String() string {
	return fmt.Sprintf("Shape{dims=%v}()", s.dims)
}

func (s *shapeOp) WriteHash(h hash.Hash) { fmt.Fprint(h, s.String()) }

func (s *shapeOp) Hashcode() uint32 { return SimpleHash(s) }

func (s *shapeOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := s.checkInputs(inputs...); err != nil {
		return nil, errors.Wrap(err, "do")
	}

	in := inputs[0].(tensor.Tensor).Shape()
	backing := make([]int, len(in))
	copy(backing, in)

	out := tensor.NewDense(
		tensor.Int,
		[]int{len(backing)},
		tensor.WithBacking(backing),
	)

	return out, nil
}

func (s *shapeOp) checkInputs(inputs ...G.Value) error {
	if err := CheckArity(s, len(inputs)); err != nil {
		return err
	}

	t, ok := inputs[0].(tensor.Tensor)
	if !ok {
		return errors.Errorf("expected tensor, received %T", inputs[0])
	} else if t == nil {
		return errors.New("cannot take the shape of a nil tensor")
	} else if t.Size() == 0 {
		return errors.New("cannot take the shape of an empty tensor")
	} else if len(t.Shape()) != s.dims {
		return errors.Errorf("expected input rank %v but got shape %v",
			s.dims, t.Shape())
	}

	return nil
}
