package distribution

import (
	"math"
	"strings"
	"testing"

	"gorgonia.org/tensor"
)

// TestNormalSampleOpShape tests the static and runtime output shapes
// of the sampling op.
func TestNormalSampleOpShape(t *testing.T) {
	op, err := newNormalSampleOp(tensor.Float64, 42, 5, 2, 3)
	if err != nil {
		t.Fatal(err)
	}

	s, err := op.InferShape()
	if err != nil {
		t.Fatal(err)
	}
	if !s.Eq(tensor.Shape{5, 2, 3}) {
		t.Errorf("expected inferred shape %v, got %v", tensor.Shape{5, 2, 3},
			s)
	}

	mean := tensor.NewDense(
		tensor.Float64,
		[]int{2, 3},
		tensor.WithBacking([]float64{-1.0, 0.0, 1.0, 2.0, 3.0, 4.0}),
	)
	std := tensor.NewDense(
		tensor.Float64,
		[]int{2, 3},
		tensor.WithBacking(ones64(6)),
	)

	out, err := op.Do(mean, std)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Shape().Eq(tensor.Shape{5, 2, 3}) {
		t.Errorf("expected output shape %v, got %v",
			tensor.Shape{5, 2, 3}, out.Shape())
	}
}

// TestNormalSampleOpDeterminism tests that two ops with the same seed
// draw identical samples and that a different seed draws different
// samples.
func TestNormalSampleOpDeterminism(t *testing.T) {
	const numSamples int = 4
	const size int = 3

	mean := tensor.NewDense(
		tensor.Float64,
		[]int{size},
		tensor.WithBacking([]float64{-1.0, 0.0, 1.0}),
	)
	std := tensor.NewDense(
		tensor.Float64,
		[]int{size},
		tensor.WithBacking([]float64{0.5, 1.0, 2.0}),
	)

	op1, err := newNormalSampleOp(tensor.Float64, 7, numSamples, size)
	if err != nil {
		t.Fatal(err)
	}
	op2, err := newNormalSampleOp(tensor.Float64, 7, numSamples, size)
	if err != nil {
		t.Fatal(err)
	}
	op3, err := newNormalSampleOp(tensor.Float64, 8, numSamples, size)
	if err != nil {
		t.Fatal(err)
	}

	out1, err := op1.Do(mean, std)
	if err != nil {
		t.Fatal(err)
	}
	out2, err := op2.Do(mean, std)
	if err != nil {
		t.Fatal(err)
	}
	out3, err := op3.Do(mean, std)
	if err != nil {
		t.Fatal(err)
	}

	data1 := out1.Data().([]float64)
	data2 := out2.Data().([]float64)
	data3 := out3.Data().([]float64)

	differs := false
	for i := range data1 {
		if data1[i] != data2[i] {
			t.Errorf("expected identical samples for equal seeds at index "+
				"%v: %v != %v", i, data1[i], data2[i])
		}
		if data1[i] != data3[i] {
			differs = true
		}
	}
	if !differs {
		t.Error("expected different samples for different seeds")
	}
}

// TestNormalSampleOpMoments tests that the sample mean and standard
// deviation approach the parameters for a large number of draws.
func TestNormalSampleOpMoments(t *testing.T) {
	const numSamples int = 10000
	const size int = 2

	meanBacking := []float64{-1.0, 0.5}
	stdBacking := []float64{0.5, 2.0}

	mean := tensor.NewDense(
		tensor.Float64,
		[]int{size},
		tensor.WithBacking(meanBacking),
	)
	std := tensor.NewDense(
		tensor.Float64,
		[]int{size},
		tensor.WithBacking(stdBacking),
	)

	op, err := newNormalSampleOp(tensor.Float64, 13, numSamples, size)
	if err != nil {
		t.Fatal(err)
	}

	out, err := op.Do(mean, std)
	if err != nil {
		t.Fatal(err)
	}

	data := out.Data().([]float64)
	for j := 0; j < size; j++ {
		var sum float64
		for i := 0; i < numSamples; i++ {
			sum += data[i*size+j]
		}
		sampleMean := sum / float64(numSamples)

		var sumSq float64
		for i := 0; i < numSamples; i++ {
			diff := data[i*size+j] - sampleMean
			sumSq += diff * diff
		}
		sampleStd := math.Sqrt(sumSq / float64(numSamples-1))

		if math.Abs(sampleMean-meanBacking[j]) > 0.1 {
			t.Errorf("expected sample mean near %v at index %v, got %v",
				meanBacking[j], j, sampleMean)
		}
		if math.Abs(sampleStd-stdBacking[j]) > 0.15 {
			t.Errorf("expected sample stddev near %v at index %v, got %v",
				stdBacking[j], j, sampleStd)
		}
	}
}

// TestNormalSampleOpErrors tests the constructor and input validation
// failure modes of the sampling op.
func TestNormalSampleOpErrors(t *testing.T) {
	if _, err := newNormalSampleOp(tensor.Float32, 1, 2, 3); err == nil {
		t.Error("expected an error for a float32 op")
	} else if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("expected unsupported dtype error, received: %v", err)
	}

	op, err := newNormalSampleOp(tensor.Float64, 1, 2, 3)
	if err != nil {
		t.Fatal(err)
	}

	mean := tensor.NewDense(
		tensor.Float64,
		[]int{3},
		tensor.WithBacking(ones64(3)),
	)
	if _, err := op.Do(mean); err == nil {
		t.Error("expected an arity error")
	} else if !strings.Contains(err.Error(), "arity") {
		t.Errorf("expected arity error, received: %v", err)
	}

	wide := tensor.NewDense(
		tensor.Float64,
		[]int{4},
		tensor.WithBacking(ones64(4)),
	)
	if _, err := op.Do(wide, mean); err == nil {
		t.Error("expected a shape error for the mean input")
	} else if !strings.Contains(err.Error(), "expected mean to have shape") {
		t.Errorf("expected mean shape error, received: %v", err)
	}
	if _, err := op.Do(mean, wide); err == nil {
		t.Error("expected a shape error for the stddev input")
	} else if !strings.Contains(err.Error(), "expected stddev to have "+
		"shape") {
		t.Errorf("expected stddev shape error, received: %v", err)
	}
}
