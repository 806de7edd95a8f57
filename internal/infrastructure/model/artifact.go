// Package model implements the persisted model-artifact store for the
// dropout-risk engine.
//
// The artifact is a versionless pair of classifier parameters and feature
// scaler parameters. The production scoring path is rule-based and never
// consults it; the artifact exists as an extension point and to satisfy the
// engine's readiness probe. Lifecycle: load from disk if present, else
// synthesize a default from a small fixed bootstrap dataset so the engine is
// always ready. Once loaded the artifact is immutable: request threads only
// ever read it.
package model

import (
	"math"
)

// ScalerParams are the feature standardization parameters: per-dimension
// mean and scale fitted on the training batch.
type ScalerParams struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

// Transform standardizes a feature vector with the fitted parameters.
func (p ScalerParams) Transform(features []float64) []float64 {
	out := make([]float64, len(features))
	for i, v := range features {
		out[i] = (v - p.Means[i]) / p.Scales[i]
	}
	return out
}

// ClassifierParams are logistic-regression parameters over the standardized
// feature space [attendance, score, sessions, days].
type ClassifierParams struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// PredictProba returns the high-risk probability for a standardized feature
// vector.
func (p ClassifierParams) PredictProba(scaled []float64) float64 {
	z := p.Bias
	for i, w := range p.Weights {
		z += w * scaled[i]
	}
	return 1 / (1 + math.Exp(-z))
}

// Artifact is the persisted (classifier, scaler) pair.
type Artifact struct {
	Classifier ClassifierParams `json:"classifier"`
	Scaler     ScalerParams     `json:"scaler"`
}

// Bootstrap dataset used to synthesize a default artifact when none is
// persisted: three reference students with a high-risk label for the middle
// one.
var (
	bootstrapFeatures = [][]float64{
		{80, 75, 10, 30},
		{60, 50, 5, 20},
		{90, 85, 15, 40},
	}
	bootstrapLabels = []float64{0, 1, 0}
)

// Training hyperparameters for the synthesized default. Plain batch gradient
// descent; the dataset is three points, so this converges instantly and
// deterministically.
const (
	trainEpochs       = 2000
	trainLearningRate = 0.1
)

// Synthesize fits the default artifact from the bootstrap dataset: scaler
// fitted on the batch, then a logistic regression on the scaled features.
// Deterministic: no random initialization.
func Synthesize() *Artifact {
	scaler := fitScaler(bootstrapFeatures)

	scaled := make([][]float64, len(bootstrapFeatures))
	for i, f := range bootstrapFeatures {
		scaled[i] = scaler.Transform(f)
	}

	dims := len(scaled[0])
	weights := make([]float64, dims)
	bias := 0.0

	n := float64(len(scaled))
	for epoch := 0; epoch < trainEpochs; epoch++ {
		gradW := make([]float64, dims)
		gradB := 0.0
		for i, x := range scaled {
			z := bias
			for d, w := range weights {
				z += w * x[d]
			}
			err := 1/(1+math.Exp(-z)) - bootstrapLabels[i]
			for d := range gradW {
				gradW[d] += err * x[d]
			}
			gradB += err
		}
		for d := range weights {
			weights[d] -= trainLearningRate * gradW[d] / n
		}
		bias -= trainLearningRate * gradB / n
	}

	return &Artifact{
		Classifier: ClassifierParams{Weights: weights, Bias: bias},
		Scaler:     scaler,
	}
}

// fitScaler computes per-dimension mean and population standard deviation.
// Constant dimensions keep a unit scale.
func fitScaler(features [][]float64) ScalerParams {
	dims := len(features[0])
	means := make([]float64, dims)
	scales := make([]float64, dims)

	for d := 0; d < dims; d++ {
		var sum float64
		for _, f := range features {
			sum += f[d]
		}
		means[d] = sum / float64(len(features))

		var sq float64
		for _, f := range features {
			dev := f[d] - means[d]
			sq += dev * dev
		}
		scales[d] = math.Sqrt(sq / float64(len(features)))
		if scales[d] == 0 {
			scales[d] = 1
		}
	}

	return ScalerParams{Means: means, Scales: scales}
}

// valid reports whether the artifact has the expected shape.
func (a *Artifact) valid() bool {
	if a == nil {
		return false
	}
	if len(a.Classifier.Weights) == 0 {
		return false
	}
	return len(a.Scaler.Means) == len(a.Classifier.Weights) &&
		len(a.Scaler.Scales) == len(a.Classifier.Weights)
}
