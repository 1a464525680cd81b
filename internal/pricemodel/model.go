// Package pricemodel estimates a resale price for a used bike from a
// regression artifact trained offline and embedded in the binary. The
// artifact carries the categorical vocabularies, the feature scaler and
// the regression weights; inference is a dot product, so estimates are
// deterministic for identical inputs.
package pricemodel

import (
	"encoding/json"
	"errors"
	"fmt"

	_ "embed"

	"github.com/shopspring/decimal"
)

//go:embed artifact.json
var artifactJSON []byte

// ErrUnknownCategory marks a brand, model or condition the artifact was
// not trained on.
var ErrUnknownCategory = errors.New("unknown category")

const numFeatures = 7

type artifact struct {
	Vocab struct {
		Brands     map[string]int `json:"brands"`
		Models     map[string]int `json:"models"`
		Conditions map[string]int `json:"conditions"`
	} `json:"vocab"`
	Scaler struct {
		Mean []float64 `json:"mean"`
		Std  []float64 `json:"std"`
	} `json:"scaler"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// Model is a loaded price estimator. It is immutable after Load and safe
// for concurrent use.
type Model struct {
	art artifact
}

// Load parses and validates the embedded artifact.
func Load() (*Model, error) {
	return load(artifactJSON)
}

func load(data []byte) (*Model, error) {
	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("parse price model artifact: %w", err)
	}
	if len(art.Scaler.Mean) != numFeatures || len(art.Scaler.Std) != numFeatures || len(art.Weights) != numFeatures {
		return nil, fmt.Errorf("price model artifact: expected %d features, got mean=%d std=%d weights=%d",
			numFeatures, len(art.Scaler.Mean), len(art.Scaler.Std), len(art.Weights))
	}
	for i, s := range art.Scaler.Std {
		if s == 0 {
			return nil, fmt.Errorf("price model artifact: zero std for feature %d", i)
		}
	}
	for name, vocab := range map[string]map[string]int{
		"brands":     art.Vocab.Brands,
		"models":     art.Vocab.Models,
		"conditions": art.Vocab.Conditions,
	} {
		if err := validateVocab(name, vocab); err != nil {
			return nil, err
		}
	}
	return &Model{art: art}, nil
}

// validateVocab checks that the encoder indices are a dense permutation of
// [0, len), the contract vocabKeys and the scaler statistics depend on.
func validateVocab(name string, vocab map[string]int) error {
	if len(vocab) == 0 {
		return fmt.Errorf("price model artifact: empty %s vocabulary", name)
	}
	seen := make([]bool, len(vocab))
	for label, idx := range vocab {
		if idx < 0 || idx >= len(vocab) {
			return fmt.Errorf("price model artifact: %s index %d for %q out of range", name, idx, label)
		}
		if seen[idx] {
			return fmt.Errorf("price model artifact: duplicate %s index %d", name, idx)
		}
		seen[idx] = true
	}
	return nil
}

// Input is the feature set of one bike.
type Input struct {
	Brand     string
	BikeModel string
	Year      int
	EngineCC  int
	KMDriven  int
	Mileage   float64
	Condition string
}

// Estimate returns the estimated price in rupees, rounded to two decimal
// places and clamped at zero. Categorical values outside the training
// vocabulary yield ErrUnknownCategory.
func (m *Model) Estimate(in Input) (decimal.Decimal, error) {
	brand, ok := m.art.Vocab.Brands[in.Brand]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: brand %q", ErrUnknownCategory, in.Brand)
	}
	model, ok := m.art.Vocab.Models[in.BikeModel]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: model %q", ErrUnknownCategory, in.BikeModel)
	}
	condition, ok := m.art.Vocab.Conditions[in.Condition]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: condition %q", ErrUnknownCategory, in.Condition)
	}

	features := [numFeatures]float64{
		float64(brand),
		float64(model),
		float64(in.Year),
		float64(in.EngineCC),
		float64(in.KMDriven),
		in.Mileage,
		float64(condition),
	}

	price := m.art.Intercept
	for i, x := range features {
		price += m.art.Weights[i] * (x - m.art.Scaler.Mean[i]) / m.art.Scaler.Std[i]
	}
	if price < 0 {
		price = 0
	}
	return decimal.NewFromFloat(price).Round(2), nil
}

// Brands returns the brands the model was trained on, for input validation
// on the chat/estimation surface.
func (m *Model) Brands() []string {
	return vocabKeys(m.art.Vocab.Brands)
}

// Models returns the bike models the estimator knows.
func (m *Model) Models() []string {
	return vocabKeys(m.art.Vocab.Models)
}

// Conditions returns the accepted condition labels.
func (m *Model) Conditions() []string {
	return vocabKeys(m.art.Vocab.Conditions)
}

func vocabKeys(vocab map[string]int) []string {
	keys := make([]string, len(vocab))
	for k, i := range vocab {
		keys[i] = k
	}
	return keys
}
