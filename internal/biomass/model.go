// Package biomass applies a pre-trained regression model to area-mean
// spectral indices and converts the predicted density to biomass, carbon, and
// CO2-equivalent mass.
package biomass

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// ErrModelUnavailable reports that the regression artifact could not be
// loaded. This is a startup-time failure: the orchestrator refuses to serve
// rather than failing requests one at a time.
var ErrModelUnavailable = errors.New("regression model unavailable")

// Model is the opaque regression capability: two spectral features in, one
// biomass density out. Implementations must be safe for concurrent use; the
// pipeline loads one model at process start and never mutates it.
type Model interface {
	// Predict returns the biomass density in kg dry weight per m² for the
	// given area-mean FAI and NDRE. Outputs may be negative; the estimator
	// clamps to the physical lower bound.
	Predict(fai, ndre float64) float64
}

// modelArtifact is the serialized form of a trained model.
type modelArtifact struct {
	Kind         string    `json:"kind"`
	Features     []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// linearModel predicts density as a plain linear combination.
type linearModel struct {
	intercept float64
	coefFAI   float64
	coefNDRE  float64
}

func (m *linearModel) Predict(fai, ndre float64) float64 {
	return m.intercept + m.coefFAI*fai + m.coefNDRE*ndre
}

// logLinearModel predicts log(density+1) linearly and exponentiates, the
// form the training pipeline fits against field samples.
type logLinearModel struct {
	intercept float64
	coefFAI   float64
	coefNDRE  float64
}

func (m *logLinearModel) Predict(fai, ndre float64) float64 {
	return math.Exp(m.intercept+m.coefFAI*fai+m.coefNDRE*ndre) - 1
}

// LoadModel reads a regression artifact from a JSON file. Any failure wraps
// ErrModelUnavailable.
func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return ParseModel(data)
}

// ParseModel builds a Model from serialized artifact bytes.
func ParseModel(data []byte) (Model, error) {
	var a modelArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: parse artifact: %v", ErrModelUnavailable, err)
	}
	if len(a.Coefficients) != 2 {
		return nil, fmt.Errorf("%w: expected 2 coefficients, got %d", ErrModelUnavailable, len(a.Coefficients))
	}

	switch a.Kind {
	case "linear":
		return &linearModel{intercept: a.Intercept, coefFAI: a.Coefficients[0], coefNDRE: a.Coefficients[1]}, nil
	case "log_linear":
		return &logLinearModel{intercept: a.Intercept, coefFAI: a.Coefficients[0], coefNDRE: a.Coefficients[1]}, nil
	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", ErrModelUnavailable, a.Kind)
	}
}

// ModelFunc adapts a plain function to the Model interface, mainly for tests.
type ModelFunc func(fai, ndre float64) float64

// Predict calls the wrapped function.
func (f ModelFunc) Predict(fai, ndre float64) float64 { return f(fai, ndre) }
