package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gprob"
)

// vecNode puts backing on g as a uniquely named, value-backed vector.
func vecNode(g *G.ExprGraph, name string, backing []float64) *G.Node {
	t := tensor.NewDense(
		tensor.Float64,
		[]int{len(backing)},
		tensor.WithBacking(backing),
	)

	return G.NewVector(
		g,
		t.Dtype(),
		G.WithName(gprob.Unique(name)),
		G.WithValue(t),
	)
}

// matNode puts backing on g as a uniquely named, value-backed matrix.
func matNode(g *G.ExprGraph, name string, rows, cols int,
	backing []float64) *G.Node {
	t := tensor.NewDense(
		tensor.Float64,
		[]int{rows, cols},
		tensor.WithBacking(backing),
	)

	return G.NewMatrix(
		g,
		t.Dtype(),
		G.WithName(gprob.Unique(name)),
		G.WithValue(t),
	)
}

func ones64(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}

	return out
}

// uniformFamily is the standard uniform distribution on [0, 1]. Its
// closed forms are all identities or constants, which keeps derived
// quantities hand-checkable: Cdf(x) = x and Quantile(p) = p.
type uniformFamily struct{}

func (uniformFamily) IsContinuous() bool { return true }

func (uniformFamily) IsReparameterized() bool { return true }

func (uniformFamily) LogProb(x *G.Node) (*G.Node, error) {
	return G.Sub(x, x)
}

func (uniformFamily) LogCdf(x *G.Node) (*G.Node, error) {
	return G.Log(x)
}

func (uniformFamily) Cdfinv(p *G.Node) (*G.Node, error) {
	return p, nil
}

// discreteFamily is a discrete family with mass exp(-x) and nothing
// else, so LogProb must be derived by the provider.
type discreteFamily struct{}

func (discreteFamily) IsContinuous() bool { return false }

func (discreteFamily) IsReparameterized() bool { return false }

func (discreteFamily) Prob(x *G.Node) (*G.Node, error) {
	neg, err := G.Neg(x)
	if err != nil {
		return nil, err
	}

	return G.Exp(neg)
}

// cdfOnlyFamily implements Cdf in closed form but not LogCdf, which
// the provider must refuse to derive.
type cdfOnlyFamily struct{}

func (cdfOnlyFamily) IsContinuous() bool { return true }

func (cdfOnlyFamily) IsReparameterized() bool { return false }

func (cdfOnlyFamily) Cdf(x *G.Node) (*G.Node, error) { return x, nil }

// bareFamily declares its traits and implements no capability at all.
type bareFamily struct {
	continuous bool
}

func (b bareFamily) IsContinuous() bool { return b.continuous }

func (b bareFamily) IsReparameterized() bool { return false }

// nanModeFamily has an undefined mode everywhere. Under the NaN
// statistics policy it reports the mode as a NaN-filled tensor;
// otherwise it fails with ErrUndefinedStatistic.
type nanModeFamily struct {
	graph    *G.ExprGraph
	dt       tensor.Dtype
	size     int
	allowNaN bool
}

func (n nanModeFamily) IsContinuous() bool { return true }

func (n nanModeFamily) IsReparameterized() bool { return false }

func (n nanModeFamily) Mode() (*G.Node, error) {
	if !n.allowNaN {
		return nil, errors.Wrap(ErrUndefinedStatistic, "mode is undefined")
	}

	t, err := gprob.NaNTensor(n.dt, n.size)
	if err != nil {
		return nil, err
	}

	return gprob.AsNode(n.graph, t)
}

// wrongShapeSampler draws one sample too many, contradicting the
// sample shape the contract requires.
type wrongShapeSampler struct {
	graph *G.ExprGraph
	size  int
}

func (w wrongShapeSampler) IsContinuous() bool { return true }

func (w wrongShapeSampler) IsReparameterized() bool { return false }

func (w wrongShapeSampler) SampleN(n int, seed uint64) (*G.Node, error) {
	backing := make([]float64, (n+1)*w.size)

	t := tensor.NewDense(
		tensor.Float64,
		[]int{n + 1, w.size},
		tensor.WithBacking(backing),
	)

	return gprob.AsNode(w.graph, t)
}

// pointSampler draws a single scalar with no leading sample
// dimension, contradicting the layout Sample needs to rearrange.
type pointSampler struct {
	graph *G.ExprGraph
}

func (p pointSampler) IsContinuous() bool { return true }

func (p pointSampler) IsReparameterized() bool { return false }

func (p pointSampler) SampleN(n int, seed uint64) (*G.Node, error) {
	return gprob.AsNode(p.graph, 1.0)
}

// failingFamily fails its only capability unconditionally, exposing
// the scope path error text of nested derivations.
type failingFamily struct{}

func (failingFamily) IsContinuous() bool { return true }

func (failingFamily) IsReparameterized() bool { return false }

func (failingFamily) LogProb(x *G.Node) (*G.Node, error) {
	return nil, errors.New("log prob failed")
}
