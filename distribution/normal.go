package distribution

import (
	"math"
	"time"

	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gprob"
)

// normalFamily is a batch of scalar normal distributions parameterized
// elementwise by value-backed mean and standard deviation nodes of
// equal shape. Values combine with the parameters under the usual
// broadcasting rule, so an input may carry extra leading dimensions or
// size-1 dimensions that stretch against the parameter shape, and
// every evaluation method returns a node of the broadcast shape.
type normalFamily struct {
	mean   *G.Node
	stddev *G.Node
}

func newNormalFamily(mean, stddev *G.Node) *normalFamily {
	return &normalFamily{mean: mean, stddev: stddev}
}

// NewNormal returns a normal distribution over the graph that mean and
// stddev live on. The two parameter nodes must have the same shape and
// dtype, and only float64 parameters are supported. Scalar parameters
// are expanded to shape (1,), so the distribution always carries at
// least one batch dimension. The returned distribution implements the
// log density, cumulative distribution function, quantile function,
// sampling and the moments.
func NewNormal(mean, stddev *G.Node, opts ...Option) (*Dist, error) {
	if mean == nil || stddev == nil {
		return nil, errors.Wrap(ErrInvalidParameter,
			"newNormal: mean and stddev must not be nil")
	}
	if mean.Dtype() != stddev.Dtype() {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"newNormal: mean and stddev should have same dtype but got "+
				"%v and %v", mean.Dtype(), stddev.Dtype())
	}
	if mean.Dtype() != tensor.Float64 {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"newNormal: dtype %v not supported", mean.Dtype())
	}
	if !mean.Shape().Eq(stddev.Shape()) {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"newNormal: mean and stddev should have same shape but got "+
				"%v and %v", mean.Shape(), stddev.Shape())
	}

	if mean.IsScalar() {
		var err error
		if mean, err = G.Reshape(mean, []int{1}); err != nil {
			return nil, errors.Wrapf(ErrInvalidParameter,
				"newNormal: could not expand mean to shape (1): %v", err)
		}
		if stddev, err = G.Reshape(stddev, []int{1}); err != nil {
			return nil, errors.Wrapf(ErrInvalidParameter,
				"newNormal: could not expand stddev to shape (1): %v", err)
		}
	}

	all := append([]Option{WithParameters(mean, stddev)}, opts...)

	return New("normal", newNormalFamily(mean, stddev), all...)
}

func (n *normalFamily) IsContinuous() bool { return true }

func (n *normalFamily) IsReparameterized() bool { return false }

// aligned pairs a value node with the parameter nodes after reshaping
// all of them to the rank of their common broadcast shape. The two
// patterns name the axes along which each side must still be repeated
// to reach that shape; an empty pattern means the side already has it.
type aligned struct {
	value    *G.Node
	mean     *G.Node
	stddev   *G.Node
	valuePat []byte
	paramPat []byte
}

// fixShape aligns x with the parameter nodes so that the two sides can
// be combined elementwise over their common broadcast shape. Shapes
// that do not broadcast together are rejected with ErrShapeMismatch.
func (n *normalFamily) fixShape(x *G.Node) (*aligned, error) {
	if x.Dtype() != n.mean.Dtype() {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"fixShape: input dtype %v, want %v", x.Dtype(), n.mean.Dtype())
	}

	xShape := x.Shape()
	pShape := n.mean.Shape()

	broad, err := gprob.FromShape(xShape).BroadcastWith(
		gprob.FromShape(pShape))
	if err != nil {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"fixShape: input shape %v is not broadcastable with "+
				"parameter shape %v", xShape, pShape)
	}

	target, err := broad.TensorShape()
	if err != nil {
		return nil, errors.Wrap(err, "fixShape")
	}

	valuePat := repeatAxes(xShape, target)
	paramPat := repeatAxes(pShape, target)
	for _, pat := range [2][]byte{valuePat, paramPat} {
		for _, axis := range pat {
			// A broadcast pattern addresses axes 0 through 3 only.
			if axis >= 4 {
				return nil, errors.Wrapf(ErrShapeMismatch,
					"fixShape: cannot repeat along axis %v of shape %v",
					axis, target)
			}
		}
	}

	out := &aligned{
		value:    x,
		mean:     n.mean,
		stddev:   n.stddev,
		valuePat: valuePat,
		paramPat: paramPat,
	}

	if len(xShape) < len(target) {
		out.value, err = G.Reshape(x, leftPad(xShape, len(target)))
		if err != nil {
			return nil, errors.Wrap(err, "fixShape")
		}
	}
	if len(pShape) < len(target) {
		padded := leftPad(pShape, len(target))
		if out.mean, err = G.Reshape(n.mean, padded); err != nil {
			return nil, errors.Wrap(err, "fixShape")
		}
		if out.stddev, err = G.Reshape(n.stddev, padded); err != nil {
			return nil, errors.Wrap(err, "fixShape")
		}
	}

	return out, nil
}

// repeatAxes returns the axes on which a node of the given shape,
// aligned at the trailing end of target, must be repeated to fill it.
func repeatAxes(shape, target tensor.Shape) []byte {
	pad := len(target) - len(shape)

	var axes []byte
	for i, want := range target {
		have := 1
		if i >= pad {
			have = shape[i-pad]
		}
		if have == 1 && want != 1 {
			axes = append(axes, byte(i))
		}
	}

	return axes
}

// leftPad extends shape to rank dimensions with leading 1s.
func leftPad(shape tensor.Shape, rank int) tensor.Shape {
	padded := make(tensor.Shape, rank)
	for i := range padded {
		padded[i] = 1
	}
	copy(padded[rank-len(shape):], shape)

	return padded
}

// LogProb returns the log density of x at the shape x and the
// parameters broadcast to.
func (n *normalFamily) LogProb(x *G.Node) (*G.Node, error) {
	f, err := n.fixShape(x)
	if err != nil {
		return nil, err
	}

	two := x.Graph().Constant(G.NewF64(2.0))
	negativeHalf := x.Graph().Constant(G.NewF64(-0.5))
	lnRootTwoPi := x.Graph().Constant(G.NewF64(math.Log(math.Sqrt(
		math.Pi * 2.))))

	out := G.Must(G.BroadcastSub(f.value, f.mean, f.valuePat, f.paramPat))
	out = G.Must(G.BroadcastHadamardDiv(out, f.stddev, nil, f.paramPat))
	out = G.Must(G.Pow(out, two))
	out = G.Must(G.HadamardProd(negativeHalf, out))
	lnStd := G.Must(G.Log(f.stddev))
	out = G.Must(G.BroadcastSub(out, lnStd, nil, f.paramPat))
	out = G.Must(G.Sub(out, lnRootTwoPi))

	return out, nil
}

// Cdf returns the cumulative distribution function of x, computed as
// erfc(-(x - mean) / (stddev * sqrt(2))) / 2 at the broadcast shape.
func (n *normalFamily) Cdf(x *G.Node) (*G.Node, error) {
	f, err := n.fixShape(x)
	if err != nil {
		return nil, err
	}

	half := x.Graph().Constant(G.NewF64(0.5))
	rootTwo := x.Graph().Constant(G.NewF64(math.Sqrt2))
	scale := G.Must(G.HadamardProd(f.stddev, rootTwo))

	out := G.Must(G.BroadcastSub(f.value, f.mean, f.valuePat, f.paramPat))
	out = G.Must(G.BroadcastHadamardDiv(out, scale, nil, f.paramPat))
	out = G.Must(G.Neg(out))
	out = G.Must(gprob.Erfc(out))

	return G.HadamardProd(half, out)
}

// Cdfinv returns the quantile function of p, computed as
// mean - stddev * sqrt(2) * erfcinv(2p) at the broadcast shape.
func (n *normalFamily) Cdfinv(p *G.Node) (*G.Node, error) {
	f, err := n.fixShape(p)
	if err != nil {
		return nil, err
	}

	two := p.Graph().Constant(G.NewF64(2.0))
	rootTwo := p.Graph().Constant(G.NewF64(math.Sqrt2))
	scale := G.Must(G.HadamardProd(f.stddev, rootTwo))

	out := G.Must(G.HadamardProd(two, f.value))
	out = G.Must(gprob.Erfcinv(out))
	out = G.Must(G.BroadcastHadamardProd(out, scale, f.valuePat, f.paramPat))
	out = G.Must(G.Neg(out))

	return G.BroadcastAdd(out, f.mean, nil, f.paramPat)
}

// SampleN draws num samples from each component, stacking them along a
// new leading dimension. A zero seed falls back to the wall clock.
func (n *normalFamily) SampleN(num int, seed uint64) (*G.Node, error) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	op, err := newNormalSampleOp(n.mean.Dtype(), seed, num,
		n.mean.Shape()...)
	if err != nil {
		return nil, err
	}

	return G.ApplyOp(op, n.mean, n.stddev)
}

func (n *normalFamily) Mean() (*G.Node, error) { return n.mean, nil }

func (n *normalFamily) Mode() (*G.Node, error) { return n.mean, nil }

func (n *normalFamily) StdDev() (*G.Node, error) { return n.stddev, nil }

func (n *normalFamily) Variance() (*G.Node, error) {
	two := n.stddev.Graph().Constant(G.NewF64(2.0))
	return G.Pow(n.stddev, two)
}

// Entropy returns the elementwise differential entropy,
// (1 + ln(2 pi stddev^2)) / 2.
func (n *normalFamily) Entropy() (*G.Node, error) {
	half := n.mean.Graph().Constant(G.NewF64(0.5))
	twoPi := n.mean.Graph().Constant(G.NewF64(math.Pi * 2.0))
	two := n.mean.Graph().Constant(G.NewF64(2.0))

	entropy := G.Must(G.Pow(n.stddev, two))
	entropy = G.Must(G.HadamardProd(entropy, twoPi))
	entropy = G.Must(G.Log(entropy))
	entropy = G.Must(G.HadamardProd(half, entropy))
	entropy = G.Must(G.Add(entropy, half))

	return entropy, nil
}
