package gprob

import (
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// SimpleHash constructs the 32-bit FNV-1a hash of a Gorgonia Op.
// Taken from Gorgonia.
func SimpleHash(op gorgonia.Op) uint32 {
	h := fnv.New32a()
	op.WriteHash(h)
	return h.Sum32()
}

func CheckArity(op gorgonia.Op, inputs int) error {
	if inputs != op.Arity() && op.Arity() >= 0 {
		return errors.Errorf("%v has an arity of %d. Got %d instead", op,
			op.Arity(), inputs)
	}
	return nil
}

// Unique appends an _ followed by the current Unix time in nanoseconds
// to name. Value-backed nodes of equal type and shape are merged by the
// graph unless their names differ, so nodes created internally are
// named with Unique.
func Unique(name string) string {
	return fmt.Sprintf("%v_%v", name, time.Now().UnixNano())
}

// NaN returns the not-a-number value of dtype dt.
func NaN(dt tensor.Dtype) (interface{}, error) {
	switch dt {
	case tensor.Float64:
		return math.NaN(), nil

	case tensor.Float32:
		return math32.NaN(), nil
	}

	return nil, errors.Errorf("nan: dtype %v unsupported", dt)
}

// NaNTensor returns a dense tensor of the given shape filled with the
// not-a-number value of dtype dt.
func NaNTensor(dt tensor.Dtype, shape ...int) (*tensor.Dense, error) {
	if len(shape) == 0 {
		return nil, errors.New("nanTensor: shape must have at least one " +
			"dimension")
	}

	size := tensor.ProdInts(shape)
	if size <= 0 {
		return nil, errors.Errorf("nanTensor: shape %v has no elements",
			tensor.Shape(shape))
	}

	switch dt {
	case tensor.Float64:
		backing := make([]float64, size)
		for i := range backing {
			backing[i] = math.NaN()
		}
		return tensor.NewDense(dt, shape, tensor.WithBacking(backing)), nil

	case tensor.Float32:
		backing := make([]float32, size)
		for i := range backing {
			backing[i] = math32.NaN()
		}
		return tensor.NewDense(dt, shape, tensor.WithBacking(backing)), nil
	}

	return nil, errors.Errorf("nanTensor: dtype %v unsupported", dt)
}
