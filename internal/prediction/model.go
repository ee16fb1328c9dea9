// Package prediction scores clients against a swappable regression model
// and searches the service interventions that raise the expected success rate.
package prediction

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"casetrack/internal/models"
)

// Interaction adds Weight * a * b to the score.
type Interaction struct {
	A      string  `yaml:"a"`
	B      string  `yaml:"b"`
	Weight float64 `yaml:"weight"`
}

// Model is a regression over client attributes and service flags. Features
// are named after the clients and client_cases columns; booleans count as 0 or 1.
type Model struct {
	Type         string             `yaml:"type"`
	Intercept    float64            `yaml:"intercept"`
	Weights      map[string]float64 `yaml:"weights"`
	Interactions []Interaction      `yaml:"interactions"`
}

var knownFeatures = func() map[string]bool {
	m := make(map[string]bool, len(models.ClientColumns)+len(models.ServiceColumns))
	for _, c := range models.ClientColumns {
		m[c] = true
	}
	for _, c := range models.ServiceColumns {
		m[c] = true
	}
	return m
}()

// errModelFileMissing marks a model whose file does not exist
var errModelFileMissing = errors.New("model file missing")

// LoadModel reads a model file
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", errModelFileMissing, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes a model and rejects features it does not know
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model: %w", err)
	}
	if len(m.Weights) == 0 {
		return nil, errors.New("model has no weights")
	}
	for name := range m.Weights {
		if !knownFeatures[name] {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
	}
	for _, in := range m.Interactions {
		if !knownFeatures[in.A] || !knownFeatures[in.B] {
			return nil, fmt.Errorf("unknown feature in interaction %q x %q", in.A, in.B)
		}
	}
	return &m, nil
}

// features maps every known feature of a profile to its numeric value
func features(p *models.Profile) map[string]float64 {
	f := make(map[string]float64, len(knownFeatures))
	for i, v := range p.Values() {
		f[models.ClientColumns[i]] = number(v)
	}
	return f
}

func number(v any) float64 {
	switch x := v.(type) {
	case int:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Score returns the predicted success rate, clamped to [0, 100]
func (m *Model) Score(f map[string]float64) float64 {
	s := m.Intercept
	for name, w := range m.Weights {
		s += w * f[name]
	}
	for _, in := range m.Interactions {
		s += in.Weight * f[in.A] * f[in.B]
	}
	return math.Max(0, math.Min(100, s))
}
