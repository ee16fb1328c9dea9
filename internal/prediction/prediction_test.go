package prediction

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"casetrack/internal/apperr"
	"casetrack/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const rankedModel = `
type: LinearRegression
intercept: 10
weights:
  employment_assistance: 7
  life_stabilization: 6
  retention_services: 5
  specialized_services: 4
  employment_related_financial_supports: 3
  employer_financial_supports: 2
  enhanced_referrals: 1
`

func writeModel(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(body), 0o600))
}

func mustParse(t *testing.T, body string) *Model {
	t.Helper()
	m, err := ParseModel([]byte(body))
	require.NoError(t, err)
	return m
}

func TestPredictRanksCombinations(t *testing.T) {
	res := Predict(mustParse(t, rankedModel), &models.Profile{Age: 30})

	assert.Equal(t, 10.0, res.Baseline)
	require.Len(t, res.Interventions, 3)

	assert.Equal(t, 38.0, res.Interventions[0].Rate)
	assert.Equal(t, models.ServiceColumns, res.Interventions[0].Services)

	assert.Equal(t, 37.0, res.Interventions[1].Rate)
	assert.NotContains(t, res.Interventions[1].Services, "enhanced_referrals")

	assert.Equal(t, 36.0, res.Interventions[2].Rate)
	assert.NotContains(t, res.Interventions[2].Services, "employer_financial_supports")
}

func TestPredictTiesPreferFewerServices(t *testing.T) {
	m := mustParse(t, `
intercept: 50
weights:
  employment_assistance: 5
`)
	res := Predict(m, &models.Profile{})

	require.Len(t, res.Interventions, 3)
	assert.Equal(t, []string{"employment_assistance"}, res.Interventions[0].Services)
	for _, in := range res.Interventions {
		assert.Equal(t, 55.0, in.Rate)
	}
}

func TestPredictNothingBeatsBaseline(t *testing.T) {
	m := mustParse(t, `
intercept: 60
weights:
  employment_assistance: -1
  currently_employed: 10
`)
	res := Predict(m, &models.Profile{CurrentlyEmployed: true})

	assert.Equal(t, 70.0, res.Baseline)
	assert.NotNil(t, res.Interventions)
	assert.Empty(t, res.Interventions)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"baseline": 70, "interventions": []}`, string(data))
}

func TestScoreClamps(t *testing.T) {
	m := mustParse(t, "intercept: 150\nweights:\n  age: 1\n")
	assert.Equal(t, 100.0, m.Score(map[string]float64{"age": 40}))

	m = mustParse(t, "intercept: -5\nweights:\n  age: 0\n")
	assert.Equal(t, 0.0, m.Score(nil))
}

func TestParseModelRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not yaml", "weights: [unterminated"},
		{"no weights", "intercept: 1\n"},
		{"unknown feature", "weights:\n  shoe_size: 1\n"},
		{"unknown interaction", "weights:\n  age: 1\ninteractions:\n  - {a: age, b: shoe_size, weight: 1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModel([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestRegistrySwap(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "linear_regression", rankedModel)
	writeModel(t, dir, "gradient_boost", "type: GradientBoostingRegressor\nweights: [broken")
	writeModel(t, dir, "random_forest", "type: LinearRegression\nweights:\n  age: 1\n")

	r := NewRegistry(dir, nil)

	_, ok := r.Current()
	assert.False(t, ok)

	_, _, err := r.Predict(&models.Profile{})
	assert.True(t, errors.Is(err, apperr.ErrInternal))

	t.Run("unknown name", func(t *testing.T) {
		_, err := r.Swap("xgboost")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
		assert.Equal(t, "Model 'xgboost' not found. Available models: [random_forest, linear_regression, gradient_boost]", err.Error())
	})

	t.Run("loads", func(t *testing.T) {
		info, err := r.Swap("linear_regression")
		require.NoError(t, err)
		assert.Equal(t, Info{Name: "linear_regression", Type: "LinearRegression"}, info)

		cur, ok := r.Current()
		require.True(t, ok)
		assert.Equal(t, info, cur)
	})

	t.Run("same type is a no-op", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, "linear_regression.yaml")))
		info, err := r.Swap("linear_regression")
		require.NoError(t, err)
		assert.Equal(t, "LinearRegression", info.Type)
	})

	t.Run("parse failure keeps current", func(t *testing.T) {
		_, err := r.Swap("gradient_boost")
		assert.True(t, errors.Is(err, apperr.ErrInternal))

		cur, _ := r.Current()
		assert.Equal(t, "linear_regression", cur.Name)
	})

	t.Run("declared type must match", func(t *testing.T) {
		_, err := r.Swap("random_forest")
		assert.True(t, errors.Is(err, apperr.ErrInternal))
	})

	t.Run("missing file", func(t *testing.T) {
		require.NoError(t, os.Remove(filepath.Join(dir, "random_forest.yaml")))
		_, err := r.Swap("random_forest")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
		assert.Equal(t, "Model file 'random_forest.yaml' not found", err.Error())
	})
}

func TestRegistryConcurrentSwapAndPredict(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "linear_regression", rankedModel)
	writeModel(t, dir, "random_forest", "type: RandomForestRegressor\nintercept: 20\nweights:\n  enhanced_referrals: 2\n")

	r := NewRegistry(dir, nil)
	_, err := r.Swap("linear_regression")
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		name := "linear_regression"
		if i%2 == 0 {
			name = "random_forest"
		}
		g.Go(func() error {
			_, err := r.Swap(name)
			return err
		})
		g.Go(func() error {
			res, info, err := r.Predict(&models.Profile{Age: 40})
			if err != nil {
				return err
			}
			if info.Name == "" || res.Baseline == 0 {
				return errors.New("prediction without a model")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestAvailableIsACopy(t *testing.T) {
	r := NewRegistry(t.TempDir(), nil)
	list := r.Available()
	list[0].Name = "changed"

	assert.Equal(t, "random_forest", r.Available()[0].Name)
}
