package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gprob"
)

// Base provides the BaseDistribution contract on top of a family
// value. It derives Prob from LogProb (and the reverse) by
// exponentiation or taking logs, and Sample from SampleN by reshaping,
// so a family only supplies what it has in closed form. A derivation
// is attempted only when the family implements the counterpart, so a
// family providing neither gets ErrNotImplemented rather than an
// infinite regress.
type Base struct {
	name  string
	scope *gprob.Scope
	impl  interface{}
}

// NewBase returns a Base deriving its defaults from impl.
func NewBase(name string, impl interface{}) (*Base, error) {
	if name == "" {
		return nil, errors.Wrap(ErrInvalidParameter,
			"newBase: name must not be empty")
	}
	if impl == nil {
		return nil, errors.Wrap(ErrInvalidParameter,
			"newBase: impl must not be nil")
	}

	return &Base{
		name:  name,
		scope: gprob.NewScope(name),
		impl:  impl,
	}, nil
}

// Name returns the name the distribution was constructed with.
func (b *Base) Name() string { return b.name }

// Prob returns the probability density or mass at x, using the
// family's Prob when it has one and exp(LogProb(x)) otherwise.
func (b *Base) Prob(x *G.Node) (*G.Node, error) {
	exit := b.scope.Enter("prob")
	defer exit()

	if x == nil {
		return nil, errors.Wrapf(ErrInvalidParameter, "%v: nil input node",
			b.scope.Name())
	}

	if p, ok := b.impl.(Prober); ok {
		out, err := p.Prob(x)
		if err != nil {
			return nil, errors.Wrap(err, b.scope.Name())
		}
		return out, nil
	}

	if _, ok := b.impl.(LogProber); !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family implements neither Prob nor LogProb",
			b.scope.Name())
	}

	lp, err := b.LogProb(x)
	if err != nil {
		return nil, err
	}

	out, err := G.Exp(lp)
	if err != nil {
		return nil, errors.Wrap(err, b.scope.Name())
	}

	return out, nil
}

// LogProb returns the log probability density or mass at x, using the
// family's LogProb when it has one and log(Prob(x)) otherwise.
func (b *Base) LogProb(x *G.Node) (*G.Node, error) {
	exit := b.scope.Enter("log_prob")
	defer exit()

	if x == nil {
		return nil, errors.Wrapf(ErrInvalidParameter, "%v: nil input node",
			b.scope.Name())
	}

	if lp, ok := b.impl.(LogProber); ok {
		out, err := lp.LogProb(x)
		if err != nil {
			return nil, errors.Wrap(err, b.scope.Name())
		}
		return out, nil
	}

	if _, ok := b.impl.(Prober); !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family implements neither LogProb nor Prob",
			b.scope.Name())
	}

	p, err := b.Prob(x)
	if err != nil {
		return nil, err
	}

	out, err := G.Log(p)
	if err != nil {
		return nil, errors.Wrap(err, b.scope.Name())
	}

	return out, nil
}

// SampleN returns a node drawing n samples from the family.
func (b *Base) SampleN(n int, seed uint64) (*G.Node, error) {
	exit := b.scope.Enter("sample_n")
	defer exit()

	if n < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"%v: expected n to be > 0, got %v", b.scope.Name(), n)
	}

	s, ok := b.impl.(Sampler)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family does not implement SampleN", b.scope.Name())
	}

	out, err := s.SampleN(n, seed)
	if err != nil {
		return nil, errors.Wrap(err, b.scope.Name())
	}

	return out, nil
}

// Sample draws prod(sampleShape) samples through SampleN and reshapes
// the leading sample dimension into sampleShape. An empty sampleShape
// draws one sample and drops the leading dimension; if the
// distribution itself is scalar the unit dimension stays, since the
// graph cannot hold rank-0 sample tensors.
func (b *Base) Sample(sampleShape []int, seed uint64) (*G.Node, error) {
	exit := b.scope.Enter("sample")
	defer exit()

	total := 1
	for _, dim := range sampleShape {
		if dim < 1 {
			return nil, errors.Wrapf(ErrInvalidParameter,
				"%v: sample shape %v has non-positive dimensions",
				b.scope.Name(), sampleShape)
		}
		total *= dim
	}

	samples, err := b.SampleN(total, seed)
	if err != nil {
		return nil, err
	}

	return reshapeSamples(b.scope, samples, sampleShape)
}

// reshapeSamples rearranges the leading dimension of samples, as drawn
// by SampleN, into sampleShape. The trailing batch and event
// dimensions are carried over unchanged, so the static shape of the
// result is exact.
func reshapeSamples(scope *gprob.Scope, samples *G.Node,
	sampleShape []int) (*G.Node, error) {
	if samples.Shape().Dims() == 0 {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"%v: family produced scalar samples, want a leading sample "+
				"dimension", scope.Name())
	}

	rest := samples.Shape()[1:]

	newShape := make([]int, 0, len(sampleShape)+len(rest))
	newShape = append(newShape, sampleShape...)
	newShape = append(newShape, rest...)

	if len(newShape) == 0 || tensor.Shape(newShape).Eq(samples.Shape()) {
		return samples, nil
	}

	out, err := G.Reshape(samples, newShape)
	if err != nil {
		return nil, errors.Wrap(err, scope.Name())
	}

	return out, nil
}
