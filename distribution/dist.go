package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gprob"
)

// Dist provides the full Distribution contract on top of a Family. It
// owns the name scope, the policy flags, the dtype and the static
// batch and event shapes; the family supplies the measure-specific
// capabilities. A Dist is immutable once constructed: every method is
// a read-only query that appends nodes to the graph.
type Dist struct {
	name  string
	scope *gprob.Scope
	impl  Family

	dtype         tensor.Dtype
	continuous    bool
	reparam       bool
	allowNaNStats bool
	validateArgs  bool

	graph  *G.ExprGraph
	params []*G.Node

	batchShape gprob.PartialShape
	eventShape gprob.PartialShape

	batchShapeNode *G.Node
	eventShapeNode *G.Node
}

type config struct {
	dtype    tensor.Dtype
	hasDtype bool
	params   []*G.Node
	batch    gprob.PartialShape
	hasBatch bool
	event    gprob.PartialShape
	hasEvent bool
	graph    *G.ExprGraph
	allowNaN bool
	validate bool
}

// Option configures a Dist under construction.
type Option func(*config) error

// WithDtype fixes the data type of samples and inputs. Without it the
// dtype is taken from the parameters, or defaults to float64.
func WithDtype(dt tensor.Dtype) Option {
	return func(c *config) error {
		c.dtype = dt
		c.hasDtype = true
		return nil
	}
}

// WithParameters registers the family's parameter nodes. The batch
// shape is the broadcast of their shapes, and the graph and dtype are
// inferred from them. Parameters must be batch-shaped: a family whose
// parameters carry event dimensions supplies WithBatchShape and
// WithEventShape explicitly instead.
func WithParameters(params ...*G.Node) Option {
	return func(c *config) error {
		for i, p := range params {
			if p == nil {
				return errors.Errorf("withParameters: parameter %d is nil", i)
			}
		}
		c.params = append(c.params, params...)
		return nil
	}
}

// WithBatchShape declares the static batch shape. It is merged with
// the parameter-derived batch shape, refining unknown dimensions;
// construction fails if the two contradict each other.
func WithBatchShape(shape gprob.PartialShape) Option {
	return func(c *config) error {
		c.batch = shape
		c.hasBatch = true
		return nil
	}
}

// WithEventShape declares the static event shape. The default is the
// scalar event shape.
func WithEventShape(shape gprob.PartialShape) Option {
	return func(c *config) error {
		c.event = shape
		c.hasEvent = true
		return nil
	}
}

// WithGraph binds the distribution to a graph when no parameter nodes
// are registered to infer it from.
func WithGraph(g *G.ExprGraph) Option {
	return func(c *config) error {
		if g == nil {
			return errors.New("withGraph: nil graph")
		}
		c.graph = g
		return nil
	}
}

// WithAllowNaNStats sets the statistics policy reported by
// AllowNaNStats. Families with partially-undefined statistics should
// be constructed with the same policy.
func WithAllowNaNStats(allow bool) Option {
	return func(c *config) error {
		c.allowNaN = allow
		return nil
	}
}

// WithValidateArgs turns on input dtype checking in the evaluation
// methods. Structural checks are on regardless.
func WithValidateArgs(validate bool) Option {
	return func(c *config) error {
		c.validate = validate
		return nil
	}
}

// New returns a Dist named name over the given family.
func New(name string, family Family, opts ...Option) (*Dist, error) {
	if name == "" {
		return nil, errors.Wrap(ErrInvalidParameter,
			"new: name must not be empty")
	}
	if family == nil {
		return nil, errors.Wrap(ErrInvalidParameter,
			"new: family must not be nil")
	}

	c := &config{}
	for _, opt := range opts {
		if opt == nil {
			return nil, errors.Wrap(ErrInvalidParameter, "new: nil option")
		}
		if err := opt(c); err != nil {
			return nil, errors.Wrapf(ErrInvalidParameter, "new: %v", err)
		}
	}

	graph := c.graph
	dtype := tensor.Float64
	hasDtype := c.hasDtype
	if hasDtype {
		dtype = c.dtype
	}

	batch := gprob.NewShape()
	hasParamBatch := false
	for i, p := range c.params {
		if graph == nil {
			graph = p.Graph()
		}
		if p.Graph() != graph {
			return nil, errors.Wrapf(ErrInvalidParameter,
				"new: parameter %d is on a different graph", i)
		}

		if !hasDtype {
			dtype = p.Dtype()
			hasDtype = true
		}
		if p.Dtype() != dtype {
			return nil, errors.Wrapf(ErrInvalidParameter,
				"new: parameter %d has dtype %v, want %v", i, p.Dtype(),
				dtype)
		}

		pshape := gprob.FromShape(p.Shape())
		if !hasParamBatch {
			batch = pshape
			hasParamBatch = true
			continue
		}

		merged, err := batch.BroadcastWith(pshape)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidParameter,
				"new: parameter shapes are not broadcastable: %v", err)
		}
		batch = merged
	}

	if c.hasBatch {
		if hasParamBatch {
			merged, err := batch.MergeWith(c.batch)
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidParameter,
					"new: batch shape conflicts with parameter shapes: %v",
					err)
			}
			batch = merged
		} else {
			batch = c.batch
		}
	}

	event := gprob.NewShape()
	if c.hasEvent {
		event = c.event
	}

	d := &Dist{
		name:          name,
		scope:         gprob.NewScope(name),
		impl:          family,
		dtype:         dtype,
		continuous:    family.IsContinuous(),
		reparam:       family.IsReparameterized(),
		allowNaNStats: c.allowNaN,
		validateArgs:  c.validate,
		graph:         graph,
		params:        c.params,
		batchShape:    batch,
		eventShape:    event,
	}

	if graph != nil {
		if batch.IsFullyDefined() && batch.Rank() > 0 {
			d.batchShapeNode = shapeNode(graph,
				d.scope.Qualify("batch_shape"), batch)
		}
		if event.IsFullyDefined() && event.Rank() > 0 {
			d.eventShapeNode = shapeNode(graph,
				d.scope.Qualify("event_shape"), event)
		}
	}

	return d, nil
}

// shapeNode puts a fully-defined, non-scalar shape on the graph as a
// value-backed 1-tensor of ints.
func shapeNode(g *G.ExprGraph, name string, shape gprob.PartialShape) *G.Node {
	ts, err := shape.TensorShape()
	if err != nil {
		return nil
	}

	backing := make([]int, len(ts))
	copy(backing, ts)
	t := tensor.NewDense(
		tensor.Int,
		[]int{len(backing)},
		tensor.WithBacking(backing),
	)

	return G.NewVector(
		g,
		tensor.Int,
		G.WithName(gprob.Unique(name)),
		G.WithValue(t),
	)
}

// Name returns the name the distribution was constructed with.
func (d *Dist) Name() string { return d.name }

// Dtype returns the data type of samples and inputs.
func (d *Dist) Dtype() tensor.Dtype { return d.dtype }

// IsContinuous returns whether the family is continuous.
func (d *Dist) IsContinuous() bool { return d.continuous }

// IsReparameterized returns whether the family draws reparameterized
// samples.
func (d *Dist) IsReparameterized() bool { return d.reparam }

// AllowNaNStats returns the statistics policy.
func (d *Dist) AllowNaNStats() bool { return d.allowNaNStats }

// ValidateArgs returns whether input dtypes are checked.
func (d *Dist) ValidateArgs() bool { return d.validateArgs }

// Graph returns the graph the distribution appends to, which is nil
// when neither parameters nor WithGraph were supplied.
func (d *Dist) Graph() *G.ExprGraph { return d.graph }

// Parameters returns the parameter nodes registered at construction.
func (d *Dist) Parameters() []*G.Node {
	out := make([]*G.Node, len(d.params))
	copy(out, d.params)
	return out
}

// BatchShape returns the static batch shape.
func (d *Dist) BatchShape() gprob.PartialShape { return d.batchShape }

// EventShape returns the static event shape.
func (d *Dist) EventShape() gprob.PartialShape { return d.eventShape }

// BatchShapeNode returns the batch shape as a value-backed 1-tensor
// node of ints.
func (d *Dist) BatchShapeNode() (*G.Node, error) {
	return shapeNodeOrErr(d.batchShapeNode, d.graph, d.batchShape,
		d.scope.Qualify("batch_shape"))
}

// EventShapeNode returns the event shape as a value-backed 1-tensor
// node of ints.
func (d *Dist) EventShapeNode() (*G.Node, error) {
	return shapeNodeOrErr(d.eventShapeNode, d.graph, d.eventShape,
		d.scope.Qualify("event_shape"))
}

// shapeNodeOrErr resolves a shape node query to the eagerly built node
// or to the reason no node exists.
func shapeNodeOrErr(node *G.Node, g *G.ExprGraph, shape gprob.PartialShape,
	path string) (*G.Node, error) {
	if node != nil {
		return node, nil
	}

	switch {
	case g == nil:
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: no graph is associated with the distribution", path)

	case !shape.IsFullyDefined():
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: shape %v is not fully known", path, shape)
	}

	return nil, errors.Wrapf(ErrNotImplemented,
		"%v: a scalar shape has no tensor form", path)
}

// checkValue applies the structural checks every evaluation method
// runs on its input: the node must exist, live on the distribution's
// graph, and have a shape broadcastable with the batch and event
// shape. With ValidateArgs on, the dtype must match as well.
func (d *Dist) checkValue(x *G.Node) error {
	path := d.scope.Name()

	if x == nil {
		return errors.Wrapf(ErrInvalidParameter, "%v: nil input node", path)
	}
	if d.graph != nil && x.Graph() != d.graph {
		return errors.Wrapf(ErrInvalidParameter,
			"%v: input node belongs to a different graph", path)
	}

	support := d.batchShape.Concat(d.eventShape)
	if _, err := gprob.FromShape(x.Shape()).BroadcastWith(support); err != nil {
		return errors.Wrapf(ErrShapeMismatch,
			"%v: input shape %v is not broadcastable with %v", path,
			x.Shape(), support)
	}

	if d.validateArgs && x.Dtype() != d.dtype {
		return errors.Wrapf(ErrInvalidParameter,
			"%v: input dtype %v, want %v", path, x.Dtype(), d.dtype)
	}

	return nil
}

// Prob returns the probability density or mass at x, using the
// family's Prob when it has one and exp(LogProb(x)) otherwise.
func (d *Dist) Prob(x *G.Node) (*G.Node, error) {
	exit := d.scope.Enter("prob")
	defer exit()

	if err := d.checkValue(x); err != nil {
		return nil, err
	}

	if p, ok := d.impl.(Prober); ok {
		out, err := p.Prob(x)
		if err != nil {
			return nil, errors.Wrap(err, d.scope.Name())
		}
		return out, nil
	}

	if _, ok := d.impl.(LogProber); !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family implements neither Prob nor LogProb",
			d.scope.Name())
	}

	lp, err := d.LogProb(x)
	if err != nil {
		return nil, err
	}

	out, err := G.Exp(lp)
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}

// LogProb returns the log probability density or mass at x, using the
// family's LogProb when it has one and log(Prob(x)) otherwise.
func (d *Dist) LogProb(x *G.Node) (*G.Node, error) {
	exit := d.scope.Enter("log_prob")
	defer exit()

	if err := d.checkValue(x); err != nil {
		return nil, err
	}

	if lp, ok := d.impl.(LogProber); ok {
		out, err := lp.LogProb(x)
		if err != nil {
			return nil, errors.Wrap(err, d.scope.Name())
		}
		return out, nil
	}

	if _, ok := d.impl.(Prober); !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family implements neither LogProb nor Prob",
			d.scope.Name())
	}

	p, err := d.Prob(x)
	if err != nil {
		return nil, err
	}

	out, err := G.Log(p)
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}

// Cdf returns the cumulative distribution function at x, using the
// family's Cdf when it has one and exp(LogCdf(x)) otherwise.
func (d *Dist) Cdf(x *G.Node) (*G.Node, error) {
	exit := d.scope.Enter("cdf")
	defer exit()

	if err := d.checkValue(x); err != nil {
		return nil, err
	}

	if c, ok := d.impl.(Cdfer); ok {
		out, err := c.Cdf(x)
		if err != nil {
			return nil, errors.Wrap(err, d.scope.Name())
		}
		return out, nil
	}

	if _, ok := d.impl.(LogCdfer); !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family implements neither Cdf nor LogCdf", d.scope.Name())
	}

	lc, err := d.LogCdf(x)
	if err != nil {
		return nil, err
	}

	out, err := G.Exp(lc)
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}

// LogCdf returns the log cumulative distribution function at x. It is
// never derived from Cdf, so a family without LogCdf gets
// ErrNotImplemented even when Cdf is available.
func (d *Dist) LogCdf(x *G.Node) (*G.Node, error) {
	exit := d.scope.Enter("log_cdf")
	defer exit()

	if err := d.checkValue(x); err != nil {
		return nil, err
	}

	lc, ok := d.impl.(LogCdfer)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family does not implement LogCdf", d.scope.Name())
	}

	out, err := lc.LogCdf(x)
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}

// Pdf returns the probability density at x for continuous families.
func (d *Dist) Pdf(x *G.Node) (*G.Node, error) {
	exit := d.scope.Enter("pdf")
	defer exit()

	if !d.continuous {
		return nil, errors.Wrapf(ErrContinuityMismatch,
			"%v: pdf is not implemented for non-continuous distributions",
			d.scope.Name())
	}

	return d.Prob(x)
}

// LogPdf returns the log probability density at x for continuous
// families.
func (d *Dist) LogPdf(x *G.Node) (*G.Node, error) {
	exit := d.scope.Enter("log_pdf")
	defer exit()

	if !d.continuous {
		return nil, errors.Wrapf(ErrContinuityMismatch,
			"%v: log_pdf is not implemented for non-continuous "+
				"distributions", d.scope.Name())
	}

	return d.LogProb(x)
}

// Pmf returns the probability mass at x for discrete families.
func (d *Dist) Pmf(x *G.Node) (*G.Node, error) {
	exit := d.scope.Enter("pmf")
	defer exit()

	if d.continuous {
		return nil, errors.Wrapf(ErrContinuityMismatch,
			"%v: pmf is not implemented for continuous distributions",
			d.scope.Name())
	}

	return d.Prob(x)
}

// LogPmf returns the log probability mass at x for discrete families.
func (d *Dist) LogPmf(x *G.Node) (*G.Node, error) {
	exit := d.scope.Enter("log_pmf")
	defer exit()

	if d.continuous {
		return nil, errors.Wrapf(ErrContinuityMismatch,
			"%v: log_pmf is not implemented for continuous distributions",
			d.scope.Name())
	}

	return d.LogProb(x)
}

// SampleN returns a node drawing n samples from the family. The
// family's node must have shape (n,) followed by the batch and event
// dimensions; a contradicting shape fails with ErrShapeMismatch.
func (d *Dist) SampleN(n int, seed uint64) (*G.Node, error) {
	exit := d.scope.Enter("sample_n")
	defer exit()

	if n < 1 {
		return nil, errors.Wrapf(ErrInvalidParameter,
			"%v: expected n to be > 0, got %v", d.scope.Name(), n)
	}

	s, ok := d.impl.(Sampler)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family does not implement SampleN", d.scope.Name())
	}

	out, err := s.SampleN(n, seed)
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	expected := gprob.NewShape(n).Concat(d.batchShape).Concat(d.eventShape)
	if _, err := gprob.FromShape(out.Shape()).MergeWith(expected); err != nil {
		return nil, errors.Wrapf(ErrShapeMismatch,
			"%v: family produced sample shape %v, want %v", d.scope.Name(),
			out.Shape(), expected)
	}

	return out, nil
}

// Sample draws prod(sampleShape) samples through SampleN and reshapes
// the leading sample dimension into sampleShape, in the same way the
// Base provider does.
func (d *Dist) Sample(sampleShape []int, seed uint64) (*G.Node, error) {
	exit := d.scope.Enter("sample")
	defer exit()

	total := 1
	for _, dim := range sampleShape {
		if dim < 1 {
			return nil, errors.Wrapf(ErrInvalidParameter,
				"%v: sample shape %v has non-positive dimensions",
				d.scope.Name(), sampleShape)
		}
		total *= dim
	}

	samples, err := d.SampleN(total, seed)
	if err != nil {
		return nil, err
	}

	return reshapeSamples(d.scope, samples, sampleShape)
}

// Entropy returns the family's entropy.
func (d *Dist) Entropy() (*G.Node, error) {
	exit := d.scope.Enter("entropy")
	defer exit()

	e, ok := d.impl.(Entropier)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family does not implement Entropy", d.scope.Name())
	}

	out, err := e.Entropy()
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}

// Mean returns the family's mean.
func (d *Dist) Mean() (*G.Node, error) {
	exit := d.scope.Enter("mean")
	defer exit()

	m, ok := d.impl.(Meaner)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family does not implement Mean", d.scope.Name())
	}

	out, err := m.Mean()
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}

// Mode returns the family's mode.
func (d *Dist) Mode() (*G.Node, error) {
	exit := d.scope.Enter("mode")
	defer exit()

	m, ok := d.impl.(Moder)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family does not implement Mode", d.scope.Name())
	}

	out, err := m.Mode()
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}

// StdDev returns the family's standard deviation.
func (d *Dist) StdDev() (*G.Node, error) {
	exit := d.scope.Enter("std_dev")
	defer exit()

	s, ok := d.impl.(StdDever)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family does not implement StdDev", d.scope.Name())
	}

	out, err := s.StdDev()
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}

// Variance returns the family's variance.
func (d *Dist) Variance() (*G.Node, error) {
	exit := d.scope.Enter("variance")
	defer exit()

	v, ok := d.impl.(Variancer)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family does not implement Variance", d.scope.Name())
	}

	out, err := v.Variance()
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}

// Quantile returns the inverse cumulative distribution function at p,
// backed by the family's Cdfinv.
func (d *Dist) Quantile(p *G.Node) (*G.Node, error) {
	exit := d.scope.Enter("quantile")
	defer exit()

	if err := d.checkValue(p); err != nil {
		return nil, err
	}

	q, ok := d.impl.(Cdfinver)
	if !ok {
		return nil, errors.Wrapf(ErrNotImplemented,
			"%v: family does not implement Cdfinv", d.scope.Name())
	}

	out, err := q.Cdfinv(p)
	if err != nil {
		return nil, errors.Wrap(err, d.scope.Name())
	}

	return out, nil
}
