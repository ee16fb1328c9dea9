package prediction

import (
	"math"
	"math/bits"
	"sort"

	"casetrack/internal/models"
)

// topInterventions is how many improving combinations a prediction returns
const topInterventions = 3

// Intervention is one combination of services and the rate it would reach
type Intervention struct {
	Rate     float64  `json:"rate"`
	Services []string `json:"services"`
}

// Result is the baseline rate of a client and the best improving combinations
type Result struct {
	Baseline      float64        `json:"baseline"`
	Interventions []Intervention `json:"interventions"`
}

// Predict scores the profile without services and under every combination
// of the service interventions. Only combinations that beat the baseline are
// kept, best first; ties prefer fewer services.
func Predict(m *Model, p *models.Profile) Result {
	f := features(p)
	for _, svc := range models.ServiceColumns {
		f[svc] = 0
	}
	baseline := round2(m.Score(f))

	type scored struct {
		mask uint
		rate float64
	}
	n := len(models.ServiceColumns)
	candidates := make([]scored, 0, 1<<n)
	for mask := uint(1); mask < 1<<n; mask++ {
		for i, svc := range models.ServiceColumns {
			f[svc] = float64(mask >> i & 1)
		}
		if rate := round2(m.Score(f)); rate > baseline {
			candidates = append(candidates, scored{mask: mask, rate: rate})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].rate != candidates[j].rate {
			return candidates[i].rate > candidates[j].rate
		}
		return bits.OnesCount(candidates[i].mask) < bits.OnesCount(candidates[j].mask)
	})
	if len(candidates) > topInterventions {
		candidates = candidates[:topInterventions]
	}

	res := Result{Baseline: baseline, Interventions: make([]Intervention, 0, len(candidates))}
	for _, c := range candidates {
		var services []string
		for i, svc := range models.ServiceColumns {
			if c.mask>>i&1 == 1 {
				services = append(services, svc)
			}
		}
		res.Interventions = append(res.Interventions, Intervention{Rate: c.rate, Services: services})
	}
	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
