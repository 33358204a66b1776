package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gprob"
)

// Independent reinterprets the rightmost batch dimensions of a
// distribution as event dimensions. Probabilities multiply and log
// probabilities sum over the reinterpreted dimensions, so a batch of
// scalar distributions becomes a single distribution over a vector of
// independent components.
//
// Methods whose result layout does not depend on the batch and event
// split, such as SampleN and the statistics, delegate to the wrapped
// distribution unchanged.
type Independent struct {
	Distribution

	scope *gprob.Scope
	name  string
	dims  int

	batchShape gprob.PartialShape
	eventShape gprob.PartialShape

	batchShapeNode *G.Node
	eventShapeNode *G.Node
}

// NewIndependent wraps inner, moving its reinterpretedDims rightmost
// batch dimensions into the event shape. The batch rank of inner must
// be known and at least reinterpretedDims.
func NewIndependent(inner Distribution, reinterpretedDims int) (*Independent, error) {
	if inner == nil {
		return nil, errors.Wrap(ErrInvalidParameter,
			"newIndependent: inner distribution must not be nil")
	}
	if reinterpretedDims < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"newIndependent: expected reinterpretedDims to be > 0, got %v",
			reinterpretedDims)
	}

	batch := inner.BatchShape()
	if !batch.RankKnown() {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"newIndependent: batch rank of %v is unknown", inner.Name())
	}
	if batch.Rank() < reinterpretedDims {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"newIndependent: cannot reinterpret %v of %v batch dimensions",
			reinterpretedDims, batch.Rank())
	}

	keep := batch.Rank() - reinterpretedDims
	headDims := make([]int, keep)
	for k := 0; k < keep; k++ {
		headDims[k] = batch.Dim(k)
	}
	tailDims := make([]int, reinterpretedDims)
	for k := 0; k < reinterpretedDims; k++ {
		tailDims[k] = batch.Dim(keep + k)
	}

	name := "independent_" + inner.Name()
	ind := &Independent{
		Distribution: inner,
		scope:        gprob.NewScope(name),
		name:         name,
		dims:         reinterpretedDims,
		batchShape:   gprob.NewShape(headDims...),
		eventShape:   gprob.NewShape(tailDims...).Concat(inner.EventShape()),
	}

	if g := inner.Graph(); g != nil {
		if ind.batchShape.IsFullyDefined() && ind.batchShape.Rank() > 0 {
			ind.batchShapeNode = shapeNode(g,
				ind.scope.Qualify("batch_shape"), ind.batchShape)
		}
		if ind.eventShape.IsFullyDefined() && ind.eventShape.Rank() > 0 {
			ind.eventShapeNode = shapeNode(g,
				ind.scope.Qualify("event_shape"), ind.eventShape)
		}
	}

	return ind, nil
}

// Name returns the name of the wrapped distribution prefixed with
// independent_.
func (i *Independent) Name() string { return i.name }

// BatchShape returns the batch shape left after reinterpretation.
func (i *Independent) BatchShape() gprob.PartialShape { return i.batchShape }

// EventShape returns the reinterpreted dimensions followed by the
// event shape of the wrapped distribution.
func (i *Independent) EventShape() gprob.PartialShape { return i.eventShape }

// BatchShapeNode returns the batch shape as a value-backed 1-tensor
// node of ints.
func (i *Independent) BatchShapeNode() (*G.Node, error) {
	return shapeNodeOrErr(i.batchShapeNode, i.Graph(), i.batchShape,
		i.scope.Qualify("batch_shape"))
}

// EventShapeNode returns the event shape as a value-backed 1-tensor
// node of ints.
func (i *Independent) EventShapeNode() (*G.Node, error) {
	return shapeNodeOrErr(i.eventShapeNode, i.Graph(), i.eventShape,
		i.scope.Qualify("event_shape"))
}

// Prob returns the joint probability at x, the product of the wrapped
// distribution's probabilities over the reinterpreted dimensions.
func (i *Independent) Prob(x *G.Node) (*G.Node, error) {
	exit := i.scope.Enter("prob")
	defer exit()

	out, err := i.innerValue(i.Distribution.Prob, x)
	if err != nil {
		return nil, err
	}

	return i.reduceProd(out)
}

// LogProb returns the joint log probability at x, the sum of the
// wrapped distribution's log probabilities over the reinterpreted
// dimensions.
func (i *Independent) LogProb(x *G.Node) (*G.Node, error) {
	exit := i.scope.Enter("log_prob")
	defer exit()

	out, err := i.innerValue(i.Distribution.LogProb, x)
	if err != nil {
		return nil, err
	}

	return i.reduceSum(out)
}

// Cdf returns the joint cumulative distribution function at x, the
// product of the wrapped distribution's cdfs over the reinterpreted
// dimensions.
func (i *Independent) Cdf(x *G.Node) (*G.Node, error) {
	exit := i.scope.Enter("cdf")
	defer exit()

	out, err := i.innerValue(i.Distribution.Cdf, x)
	if err != nil {
		return nil, err
	}

	return i.reduceProd(out)
}

// LogCdf returns the joint log cumulative distribution function at x,
// the sum of the wrapped distribution's log cdfs over the
// reinterpreted dimensions.
func (i *Independent) LogCdf(x *G.Node) (*G.Node, error) {
	exit := i.scope.Enter("log_cdf")
	defer exit()

	out, err := i.innerValue(i.Distribution.LogCdf, x)
	if err != nil {
		return nil, err
	}

	return i.reduceSum(out)
}

// Pdf returns the joint probability density at x for continuous
// distributions.
func (i *Independent) Pdf(x *G.Node) (*G.Node, error) {
	exit := i.scope.Enter("pdf")
	defer exit()

	if !i.IsContinuous() {
		return nil, errors.Wrapf(ErrContinuityMismatch,
			"%v: pdf is not implemented for non-continuous distributions",
			i.scope.Name())
	}

	return i.Prob(x)
}

// LogPdf returns the joint log probability density at x for
// continuous distributions.
func (i *Independent) LogPdf(x *G.Node) (*G.Node, error) {
	exit := i.scope.Enter("log_pdf")
	defer exit()

	if !i.IsContinuous() {
		return nil, errors.Wrapf(ErrContinuityMismatch,
			"%v: log_pdf is not implemented for non-continuous "+
				"distributions", i.scope.Name())
	}

	return i.LogProb(x)
}

// Pmf returns the joint probability mass at x for discrete
// distributions.
func (i *Independent) Pmf(x *G.Node) (*G.Node, error) {
	exit := i.scope.Enter("pmf")
	defer exit()

	if i.IsContinuous() {
		return nil, errors.Wrapf(ErrContinuityMismatch,
			"%v: pmf is not implemented for continuous distributions",
			i.scope.Name())
	}

	return i.Prob(x)
}

// LogPmf returns the joint log probability mass at x for discrete
// distributions.
func (i *Independent) LogPmf(x *G.Node) (*G.Node, error) {
	exit := i.scope.Enter("log_pmf")
	defer exit()

	if i.IsContinuous() {
		return nil, errors.Wrapf(ErrContinuityMismatch,
			"%v: log_pmf is not implemented for continuous distributions",
			i.scope.Name())
	}

	return i.LogProb(x)
}

// Entropy returns the joint entropy, the sum of the wrapped
// distribution's entropies over the reinterpreted dimensions.
func (i *Independent) Entropy() (*G.Node, error) {
	exit := i.scope.Enter("entropy")
	defer exit()

	out, err := i.Distribution.Entropy()
	if err != nil {
		return nil, errors.Wrap(err, i.scope.Name())
	}

	return i.reduceSum(out)
}

// innerValue checks x and evaluates an input-taking method of the
// wrapped distribution on it.
func (i *Independent) innerValue(f func(*G.Node) (*G.Node, error),
	x *G.Node) (*G.Node, error) {
	if x == nil {
		return nil, errors.Wrapf(ErrInvalidParameter, "%v: nil input node",
			i.scope.Name())
	}
	if x.Dims() < i.dims {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"%v: expected input rank to be >= %v, got %v", i.scope.Name(),
			i.dims, x.Dims())
	}

	out, err := f(x)
	if err != nil {
		return nil, errors.Wrap(err, i.scope.Name())
	}

	return out, nil
}

// reduceProd combines the reinterpreted dims of x by product, always
// from the right.
func (i *Independent) reduceProd(x *G.Node) (*G.Node, error) {
	var err error
	for j := 0; j < i.dims; j++ {
		x, err = gprob.ReduceProd(x, x.Dims()-1)
		if err != nil {
			return nil, errors.Wrap(err, i.scope.Name())
		}
	}

	return x, nil
}

// reduceSum combines the reinterpreted dims of x by summation, always
// from the right.
func (i *Independent) reduceSum(x *G.Node) (*G.Node, error) {
	var err error
	for j := 0; j < i.dims; j++ {
		x, err = G.Sum(x, x.Dims()-1)
		if err != nil {
			return nil, errors.Wrap(err, i.scope.Name())
		}
	}

	return x, nil
}
