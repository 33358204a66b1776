// Package distribution provides probability distribution contracts
// over Gorgonia graphs.
//
// A distribution is assembled from two parts: a family, which supplies
// the measure-specific pieces it has in closed form, and a provider
// (Base or Dist), which wires those pieces into the full contract and
// derives everything the family left out. Capabilities are discovered
// by type assertion, so a family implements exactly the interfaces
// below that it can support and nothing else.
package distribution

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/gprob"
)

// BaseDistribution is the minimal distribution contract: point
// densities and sampling. Every method appends nodes to the graph the
// input values live on; nothing is evaluated until the graph runs.
type BaseDistribution interface {
	// Name returns the name the distribution was constructed with.
	Name() string

	// Prob returns the probability density or mass at x. The shape
	// of x must be broadcastable with the shape of the distribution.
	Prob(x *G.Node) (*G.Node, error)

	// LogProb returns the log of the probability density or mass at
	// x. The shape of x is treated in the same way as the Prob()
	// method.
	LogProb(x *G.Node) (*G.Node, error)

	// SampleN returns a node that draws n samples from the
	// distribution each time the graph runs. The result has shape
	// (n,) followed by the batch and event dimensions. This function
	// is not differentiable.
	SampleN(n int, seed uint64) (*G.Node, error)

	// Sample returns a node that draws prod(sampleShape) samples and
	// arranges them so the result has shape sampleShape followed by
	// the batch and event dimensions. An empty sampleShape draws a
	// single sample with no leading sample dimensions.
	Sample(sampleShape []int, seed uint64) (*G.Node, error)
}

// Distribution is the full distribution contract: the minimal one plus
// shape introspection, policy flags, cumulative functions and moments.
type Distribution interface {
	BaseDistribution

	// Dtype returns the data type of samples and of the values the
	// evaluation methods expect.
	Dtype() tensor.Dtype

	// IsContinuous returns whether the distribution is continuous;
	// discrete distributions answer false. Pdf and Pmf dispatch on
	// this trait.
	IsContinuous() bool

	// IsReparameterized returns whether samples are reparameterized,
	// so that gradients can flow through them to the parameters.
	IsReparameterized() bool

	// AllowNaNStats returns the statistics policy: when true,
	// statistics that are undefined for some parameter values
	// produce NaN entries there; when false they fail with
	// ErrUndefinedStatistic.
	AllowNaNStats() bool

	// ValidateArgs returns whether the evaluation methods check
	// input dtypes in addition to the structural checks that are
	// always on.
	ValidateArgs() bool

	// Graph returns the graph the distribution appends nodes to. It
	// is nil when no parameters or graph were bound at construction.
	Graph() *G.ExprGraph

	// BatchShape returns the static batch shape: the shape of the
	// independent, non-identical distributions the instance holds.
	// It may be partially unknown.
	BatchShape() gprob.PartialShape

	// EventShape returns the static shape of a single sample from a
	// single batch member. It may be partially unknown.
	EventShape() gprob.PartialShape

	// BatchShapeNode returns the batch shape as a 1-tensor node of
	// ints on the graph. The graph cannot hold empty tensors, so a
	// scalar batch shape has no node form.
	BatchShapeNode() (*G.Node, error)

	// EventShapeNode returns the event shape as a 1-tensor node of
	// ints on the graph, under the same restriction as
	// BatchShapeNode.
	EventShapeNode() (*G.Node, error)

	// Cdf returns the cumulative distribution function evaluated at
	// x. The shape of x is treated in the same way as the Prob()
	// method.
	Cdf(x *G.Node) (*G.Node, error)

	// LogCdf returns the log of the cumulative distribution function
	// evaluated at x. The shape of x is treated in the same way as
	// the Prob() method.
	LogCdf(x *G.Node) (*G.Node, error)

	// Pdf returns the probability density at x for continuous
	// distributions, and ErrContinuityMismatch otherwise.
	Pdf(x *G.Node) (*G.Node, error)

	// LogPdf returns the log probability density at x for continuous
	// distributions, and ErrContinuityMismatch otherwise.
	LogPdf(x *G.Node) (*G.Node, error)

	// Pmf returns the probability mass at x for discrete
	// distributions, and ErrContinuityMismatch otherwise.
	Pmf(x *G.Node) (*G.Node, error)

	// LogPmf returns the log probability mass at x for discrete
	// distributions, and ErrContinuityMismatch otherwise.
	LogPmf(x *G.Node) (*G.Node, error)

	Entropy() (*G.Node, error)
	Mean() (*G.Node, error)
	Mode() (*G.Node, error)
	StdDev() (*G.Node, error)
	Variance() (*G.Node, error)
}

// Quantiler is a Distribution that can return the inverse of the CDF
// function, sometimes called the quantile function.
type Quantiler interface {
	Distribution
	Quantile(p *G.Node) (*G.Node, error)
}

// Family carries the per-family traits every distribution must
// declare. A family additionally implements whichever of the
// capability interfaces below it supports; the provider derives the
// rest or reports ErrNotImplemented.
type Family interface {
	IsContinuous() bool
	IsReparameterized() bool
}

// Prober is implemented by families whose probability density or mass
// is available in closed form.
type Prober interface {
	Prob(x *G.Node) (*G.Node, error)
}

// LogProber is implemented by families whose log density or mass is
// available in closed form. Implementing LogProber is usually the
// numerically better choice, since Prob then falls out by
// exponentiation.
type LogProber interface {
	LogProb(x *G.Node) (*G.Node, error)
}

// Cdfer is implemented by families whose cumulative distribution
// function is available in closed form.
type Cdfer interface {
	Cdf(x *G.Node) (*G.Node, error)
}

// LogCdfer is implemented by families whose log cumulative
// distribution function is available in closed form. Cdf falls out by
// exponentiation, but LogCdf is never derived from Cdf: log(cdf) of a
// value in the far tails loses all precision.
type LogCdfer interface {
	LogCdf(x *G.Node) (*G.Node, error)
}

// Cdfinver is implemented by families whose inverse cumulative
// distribution function is available in closed form. It backs the
// Quantile method.
type Cdfinver interface {
	Cdfinv(p *G.Node) (*G.Node, error)
}

// Sampler is implemented by families that can draw samples. The
// returned node must have shape (n,) followed by the batch and event
// dimensions. A zero seed means the family draws nondeterministically.
type Sampler interface {
	SampleN(n int, seed uint64) (*G.Node, error)
}

// Entropier is implemented by families whose entropy is available in
// closed form.
type Entropier interface {
	Entropy() (*G.Node, error)
}

// Meaner is implemented by families whose mean is available in closed
// form.
type Meaner interface {
	Mean() (*G.Node, error)
}

// Moder is implemented by families whose mode is available in closed
// form.
type Moder interface {
	Mode() (*G.Node, error)
}

// StdDever is implemented by families whose standard deviation is
// available in closed form.
type StdDever interface {
	StdDev() (*G.Node, error)
}

// Variancer is implemented by families whose variance is available in
// closed form.
type Variancer interface {
	Variance() (*G.Node, error)
}
