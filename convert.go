package gprob

import (
	"reflect"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// AsNode converts value into a node on graph g. Accepted values are
// nodes already on g, Gorgonia values, tensors, Go scalars (float64,
// float32, int), and the corresponding slices, which become 1-tensors.
// Nodes created here get a unique generated name unless opts supplies
// one, so that two conversions with equal shape and type are never
// collapsed into a single graph node.
func AsNode(g *G.ExprGraph, value interface{}, opts ...G.NodeConsOpt) (*G.Node, error) {
	if g == nil {
		return nil, errors.New("asNode: nil graph")
	}

	switch v := value.(type) {
	case nil:
		return nil, errors.New("asNode: nil value")

	case *G.Node:
		if v == nil {
			return nil, errors.New("asNode: nil node")
		}
		if v.Graph() != g {
			return nil, errors.Errorf("asNode: node %v belongs to a "+
				"different graph", v.Name())
		}
		return v, nil

	case tensor.Tensor:
		return tensorNode(g, v, opts)

	case G.Value:
		return G.NewScalar(g, v.Dtype(), valueOpts(v, opts)...), nil

	case float64:
		return G.NewScalar(g, tensor.Float64, valueOpts(v, opts)...), nil

	case float32:
		return G.NewScalar(g, tensor.Float32, valueOpts(v, opts)...), nil

	case int:
		return G.NewScalar(g, tensor.Int, valueOpts(v, opts)...), nil

	case []float64:
		if len(v) == 0 {
			return nil, errors.New("asNode: empty slice")
		}
		t := tensor.NewDense(tensor.Float64, []int{len(v)},
			tensor.WithBacking(v))
		return tensorNode(g, t, opts)

	case []float32:
		if len(v) == 0 {
			return nil, errors.New("asNode: empty slice")
		}
		t := tensor.NewDense(tensor.Float32, []int{len(v)},
			tensor.WithBacking(v))
		return tensorNode(g, t, opts)

	case []int:
		if len(v) == 0 {
			return nil, errors.New("asNode: empty slice")
		}
		t := tensor.NewDense(tensor.Int, []int{len(v)},
			tensor.WithBacking(v))
		return tensorNode(g, t, opts)
	}

	return nil, errors.Errorf("asNode: cannot convert %T to a node", value)
}

func tensorNode(g *G.ExprGraph, t tensor.Tensor, opts []G.NodeConsOpt) (*G.Node, error) {
	if t == nil {
		return nil, errors.New("asNode: nil tensor")
	}
	// A non-nil tensor.Tensor interface can still hold a nil pointer.
	if rv := reflect.ValueOf(t); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, errors.New("asNode: nil tensor")
	}
	if t.Size() == 0 {
		return nil, errors.New("asNode: empty tensor")
	}

	if t.Dims() == 0 {
		elem, err := t.At()
		if err != nil {
			return nil, errors.Errorf("asNode: could not read scalar "+
				"tensor: %v", err)
		}
		return G.NewScalar(g, t.Dtype(), valueOpts(elem, opts)...), nil
	}

	return G.NewTensor(g, t.Dtype(), t.Dims(), valueOpts(t, opts)...), nil
}

// valueOpts orders the node construction options so a caller-supplied
// name overrides the generated one, while the bound value always wins.
func valueOpts(value interface{}, opts []G.NodeConsOpt) []G.NodeConsOpt {
	all := make([]G.NodeConsOpt, 0, len(opts)+2)
	all = append(all, G.WithName(Unique("value")))
	all = append(all, opts...)
	all = append(all, G.WithValue(value))

	return all
}
