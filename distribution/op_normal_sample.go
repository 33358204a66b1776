package distribution

import (
	"fmt"
	"hash"

	"github.com/chewxy/hm"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gprob"
)

// normalSampleOp draws seeded normal variates elementwise from
// value-backed mean and stddev tensors, stacking numSamples draws
// along a new leading dimension. The op is not differentiable.
type normalSampleOp struct {
	dt         tensor.Dtype
	shape      tensor.Shape
	dist       distuv.Normal
	numSamples int
}

// newNormalSampleOp returns a new normalSampleOp that samples from
// numSamples normal distributions, each of which has a mean and
// standard deviation determined by the elements of the op inputs.
// Only float64 parameters are supported.
func newNormalSampleOp(dt tensor.Dtype, seed uint64, numSamples int,
	shape ...int) (*normalSampleOp, error) {
	if dt != tensor.Float64 {
		return nil, errors.Errorf("newNormalSampleOp: dtype %v not "+
			"supported", dt)
	}

	return &normalSampleOp{
		dt:    dt,
		shape: tensor.Shape(shape),
		dist: distuv.Normal{
			Mu:    0.0,
			Sigma: 1.0,
			Src:   rand.NewSource(seed),
		},
		numSamples: numSamples,
	}, nil
}

// Arity implements the gorgonia.org/gorgonia.Op interface.
func (n *normalSampleOp) Arity() int { return 2 }

// Type implements the gorgonia.org/gorgonia.Op interface.
func (n *normalSampleOp) Type() hm.Type {
	in := G.TensorType{Dims: n.shape.Dims(), Of: n.dt}
	out := G.TensorType{Dims: n.shape.Dims() + 1, Of: n.dt}

	return hm.NewFnType(in, in, out)
}

// InferShape implements the gorgonia.org/gorgonia.Op interface.
func (n *normalSampleOp) InferShape(...G.DimSizer) (tensor.Shape, error) {
	return append(tensor.Shape{n.numSamples}, n.shape...), nil
}

// ReturnsPtr implements the gorgonia.org/gorgonia.Op interface.
func (n *normalSampleOp) ReturnsPtr() bool { return false }

// CallsExtern implements the gorgonia.org/gorgonia.Op interface.
func (n *normalSampleOp) CallsExtern() bool { return false }

// OverwritesInput implements the gorgonia.org/gorgonia.Op interface.
func (n *normalSampleOp) OverwritesInput() int { return -1 }

// String implements the fmt.Stringer interface.
func (n *normalSampleOp) String() string {
	return fmt.Sprintf("NormalSample{n=%v, shape=%v}()", n.numSamples,
		n.shape)
}

// WriteHash implements the gorgonia.org/gorgonia.Op interface.
func (n *normalSampleOp) WriteHash(h hash.Hash) { fmt.Fprint(h, n.String()) }

// Hashcode implements the gorgonia.org/gorgonia.Op interface.
func (n *normalSampleOp) Hashcode() uint32 { return gprob.SimpleHash(n) }

// Do implements the gorgonia.org/gorgonia.Op interface. It draws
// numSamples values for each mean and stddev element pair.
func (n *normalSampleOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := n.checkInputs(inputs...); err != nil {
		return nil, errors.Wrap(err, "do")
	}

	mean := inputs[0].(tensor.Tensor)
	std := inputs[1].(tensor.Tensor)

	out := tensor.NewDense(
		n.dt,
		append([]int{n.numSamples}, n.shape...),
	)

	for i := 0; i < mean.Size(); i++ {
		coords, err := tensor.Itol(i, mean.Shape(), mean.Strides())
		if err != nil {
			return nil, errors.Errorf("do: could not get coords at index "+
				"%v", i)
		}

		currentMean, err := mean.At(coords...)
		if err != nil {
			return nil, errors.Errorf("do: could not get mean at index %v",
				i)
		}
		currentStd, err := std.At(coords...)
		if err != nil {
			return nil, errors.Errorf("do: could not get stddev at index "+
				"%v", i)
		}

		n.dist.Mu = currentMean.(float64)
		n.dist.Sigma = currentStd.(float64)

		outCoords := append([]int{0}, coords...)
		for j := 0; j < n.numSamples; j++ {
			outCoords[0] = j

			if err := out.SetAt(n.dist.Rand(), outCoords...); err != nil {
				return nil, errors.Errorf("do: could not set sample at "+
					"%v", outCoords)
			}
		}
	}

	return out, nil
}

// checkInputs validates that inputs are tensors of the parameter
// shape.
func (n *normalSampleOp) checkInputs(inputs ...G.Value) error {
	if err := gprob.CheckArity(n, len(inputs)); err != nil {
		return err
	}

	mean, ok := inputs[0].(tensor.Tensor)
	if !ok || mean == nil {
		return errors.Errorf("expected mean to be a tensor, got %T",
			inputs[0])
	} else if !mean.Shape().Eq(n.shape) {
		return errors.Errorf("expected mean to have shape %v but got %v",
			n.shape, mean.Shape())
	}

	std, ok := inputs[1].(tensor.Tensor)
	if !ok || std == nil {
		return errors.Errorf("expected stddev to be a tensor, got %T",
			inputs[1])
	} else if !std.Shape().Eq(n.shape) {
		return errors.Errorf("expected stddev to have shape %v but got %v",
			n.shape, std.Shape())
	}

	return nil
}
