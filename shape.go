package gprob

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Unknown marks a dimension whose size is not yet known.
const Unknown = -1

// PartialShape is a possibly partially-known tensor shape. A dimension
// may be Unknown, and the rank itself may be unknown. It is the static
// counterpart of a runtime shape node: as construction proceeds, a
// PartialShape is only ever refined towards a fully-known tensor.Shape
// and must never contradict the shape a node reports at run time.
//
// The zero value is the unknown-rank shape.
type PartialShape struct {
	dims      []int
	rankKnown bool
}

// NewShape returns a fully-ranked shape with the given dimensions.
// Negative dimensions are stored as Unknown.
func NewShape(dims ...int) PartialShape {
	cp := make([]int, len(dims))
	for i, d := range dims {
		if d < 0 {
			cp[i] = Unknown
		} else {
			cp[i] = d
		}
	}

	return PartialShape{dims: cp, rankKnown: true}
}

// UnknownShape returns the shape with unknown rank.
func UnknownShape() PartialShape { return PartialShape{} }

// FromShape returns the fully-known PartialShape equivalent to s.
func FromShape(s tensor.Shape) PartialShape {
	return NewShape(s...)
}

// RankKnown returns whether the rank of the shape is known.
func (p PartialShape) RankKnown() bool { return p.rankKnown }

// Rank returns the number of dimensions, or -1 if the rank is unknown.
func (p PartialShape) Rank() int {
	if !p.rankKnown {
		return -1
	}

	return len(p.dims)
}

// Dim returns the size of dimension i, which may be Unknown. Dim panics
// if i is out of range or the rank is unknown.
func (p PartialShape) Dim(i int) int { return p.dims[i] }

// IsFullyDefined returns whether the rank and every dimension are known.
func (p PartialShape) IsFullyDefined() bool {
	if !p.rankKnown {
		return false
	}

	for _, d := range p.dims {
		if d == Unknown {
			return false
		}
	}

	return true
}

// TensorShape converts the shape to a tensor.Shape. It returns an error
// if the shape is not fully defined.
func (p PartialShape) TensorShape() (tensor.Shape, error) {
	if !p.IsFullyDefined() {
		return nil, errors.Errorf("tensorShape: shape %v is not fully defined", p)
	}

	if len(p.dims) == 0 {
		return tensor.ScalarShape(), nil
	}

	out := make(tensor.Shape, len(p.dims))
	copy(out, p.dims)

	return out, nil
}

// MergeWith combines the information in the receiver and other. The
// result is at least as specific as either input. Merging fails if the
// shapes disagree on the rank or on any known dimension.
func (p PartialShape) MergeWith(other PartialShape) (PartialShape, error) {
	if !p.rankKnown {
		return other.clone(), nil
	}
	if !other.rankKnown {
		return p.clone(), nil
	}

	if len(p.dims) != len(other.dims) {
		return PartialShape{}, errors.Errorf("mergeWith: cannot merge "+
			"shapes %v and %v: ranks differ", p, other)
	}

	out := make([]int, len(p.dims))
	for i := range out {
		a, b := p.dims[i], other.dims[i]
		switch {
		case a == Unknown:
			out[i] = b

		case b == Unknown || a == b:
			out[i] = a

		default:
			return PartialShape{}, errors.Errorf("mergeWith: cannot merge "+
				"shapes %v and %v: dimension %d conflicts", p, other, i)
		}
	}

	return PartialShape{dims: out, rankKnown: true}, nil
}

// Concat returns the shape formed by the receiver's dimensions followed
// by other's. If either rank is unknown, so is the result's.
func (p PartialShape) Concat(other PartialShape) PartialShape {
	if !p.rankKnown || !other.rankKnown {
		return UnknownShape()
	}

	dims := make([]int, 0, len(p.dims)+len(other.dims))
	dims = append(dims, p.dims...)
	dims = append(dims, other.dims...)

	return PartialShape{dims: dims, rankKnown: true}
}

// BroadcastWith returns the shape that results from broadcasting the
// receiver with other. Dimensions are aligned from the trailing end;
// at each position the sizes must be equal, or one of them must be 1,
// which stretches to the other. A missing leading dimension counts as
// 1. If either rank is unknown the result has unknown rank; an Unknown
// dimension broadcasts with anything and stays unknown unless the other
// side pins it.
func (p PartialShape) BroadcastWith(other PartialShape) (PartialShape, error) {
	if !p.rankKnown || !other.rankKnown {
		return UnknownShape(), nil
	}

	rank := len(p.dims)
	if len(other.dims) > rank {
		rank = len(other.dims)
	}

	out := make([]int, rank)
	for i := 1; i <= rank; i++ {
		a, b := 1, 1
		if i <= len(p.dims) {
			a = p.dims[len(p.dims)-i]
		}
		if i <= len(other.dims) {
			b = other.dims[len(other.dims)-i]
		}

		var d int
		switch {
		case a == 1:
			d = b

		case b == 1 || a == b:
			d = a

		case a == Unknown:
			d = b

		case b == Unknown:
			d = a

		default:
			return PartialShape{}, errors.Errorf("broadcastWith: shapes "+
				"%v and %v are not broadcastable: dimensions %v and %v "+
				"conflict", p, other, a, b)
		}
		out[rank-i] = d
	}

	return PartialShape{dims: out, rankKnown: true}, nil
}

// Eq returns whether the receiver and other carry exactly the same
// shape information. Unknown dimensions compare equal to each other.
func (p PartialShape) Eq(other PartialShape) bool {
	if p.rankKnown != other.rankKnown {
		return false
	}
	if !p.rankKnown {
		return true
	}
	if len(p.dims) != len(other.dims) {
		return false
	}

	for i := range p.dims {
		if p.dims[i] != other.dims[i] {
			return false
		}
	}

	return true
}

func (p PartialShape) String() string {
	if !p.rankKnown {
		return "<unknown>"
	}

	parts := make([]string, len(p.dims))
	for i, d := range p.dims {
		if d == Unknown {
			parts[i] = "?"
		} else {
			parts[i] = strconv.Itoa(d)
		}
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

func (p PartialShape) clone() PartialShape {
	if !p.rankKnown {
		return PartialShape{}
	}

	dims := make([]int, len(p.dims))
	copy(dims, p.dims)

	return PartialShape{dims: dims, rankKnown: true}
}

// ValueAsShape extracts a fully-known shape from a node holding a
// 1-tensor of ints as its value, such as a shape node backed by a
// value at construction or the output of ShapeOf after the graph has
// run. If the node carries no such value, the unknown-rank shape is
// returned.
func ValueAsShape(n *G.Node) PartialShape {
	if n == nil {
		return UnknownShape()
	}

	v := n.Value()
	if v == nil {
		return UnknownShape()
	}

	t, ok := v.(tensor.Tensor)
	if !ok || t.Dims() != 1 || t.Dtype() != tensor.Int {
		return UnknownShape()
	}

	dims := make([]int, t.Shape()[0])
	for i := range dims {
		elem, err := t.At(i)
		if err != nil {
			return UnknownShape()
		}

		d, ok := elem.(int)
		if !ok {
			return UnknownShape()
		}
		dims[i] = d
	}

	return NewShape(dims...)
}
