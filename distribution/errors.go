package distribution

import "github.com/pkg/errors"

// Errors reported by distributions. Every error a distribution returns
// wraps one of these sentinels, prefixed with the scope path of the
// method that produced it, so callers can match the kind with errors.Is
// while the message pins down the call site.
var (
	// ErrNotImplemented reports an operation the family neither
	// implements nor provides enough of for a default to be derived.
	ErrNotImplemented = errors.New("not implemented")

	// ErrContinuityMismatch reports a density method called on a
	// discrete distribution, or a mass method called on a continuous
	// one.
	ErrContinuityMismatch = errors.New("continuity mismatch")

	// ErrInvalidParameter reports a structurally invalid argument,
	// such as an empty name, a nil node, or parameters whose shapes
	// cannot broadcast. These are raised eagerly and are not subject
	// to the AllowNaNStats policy.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUndefinedStatistic reports a statistic that does not exist
	// for the current, otherwise valid, parameter values. Families
	// return it when AllowNaNStats is off; with the policy on they
	// produce NaN entries instead.
	ErrUndefinedStatistic = errors.New("undefined statistic")

	// ErrShapeMismatch reports an input whose shape cannot broadcast
	// against the distribution's batch and event shape, or a family
	// sample whose shape contradicts the one the contract requires.
	ErrShapeMismatch = errors.New("shape mismatch")
)
