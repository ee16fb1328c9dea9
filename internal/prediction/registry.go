package prediction

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"casetrack/internal/apperr"
	"casetrack/internal/models"
)

// Info names a model and its type
type Info struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Catalogue lists the models that can be activated
var Catalogue = []Info{
	{Name: "random_forest", Type: "RandomForestRegressor"},
	{Name: "linear_regression", Type: "LinearRegression"},
	{Name: "gradient_boost", Type: "GradientBoostingRegressor"},
}

type active struct {
	info  Info
	model *Model
}

// Registry holds the active model. Readers load it without locking; swaps
// are serialised by mu and publish the new model atomically.
type Registry struct {
	dir     string
	current atomic.Pointer[active]
	mu      sync.Mutex
	logger  *zap.Logger
}

// NewRegistry creates a registry reading model files from dir
func NewRegistry(dir string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{dir: dir, logger: logger}
}

// Available returns the catalogue
func (r *Registry) Available() []Info {
	out := make([]Info, len(Catalogue))
	copy(out, Catalogue)
	return out
}

// Current returns the active model. ok is false before the first load.
func (r *Registry) Current() (info Info, ok bool) {
	a := r.current.Load()
	if a == nil {
		return Info{}, false
	}
	return a.info, true
}

// Swap activates the named model. Asking for the type already active is a
// no-op.
func (r *Registry) Swap(name string) (Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := lookup(name)
	if !ok {
		names := make([]string, len(Catalogue))
		for i, c := range Catalogue {
			names[i] = c.Name
		}
		r.logger.Warn("unknown model requested", zap.String("model", name))
		return Info{}, apperr.InvalidArgument("Model '%s' not found. Available models: [%s]", name, strings.Join(names, ", "))
	}

	if cur := r.current.Load(); cur != nil && cur.info.Type == info.Type {
		return cur.info, nil
	}

	path := filepath.Join(r.dir, name+".yaml")
	r.logger.Info("loading model", zap.String("model", name), zap.String("path", path))

	m, err := LoadModel(path)
	if errors.Is(err, errModelFileMissing) {
		r.logger.Error("model file not found", zap.String("path", path))
		return Info{}, apperr.NotFound("Model file '%s.yaml' not found", name)
	}
	if err != nil {
		return Info{}, apperr.Internal(err, "Error setting model")
	}
	if m.Type != "" && m.Type != info.Type {
		return Info{}, apperr.Internal(fmt.Errorf("file declares %s, expected %s", m.Type, info.Type), "Error setting model")
	}

	r.current.Store(&active{info: info, model: m})
	r.logger.Info("model activated", zap.String("model", info.Name), zap.String("type", info.Type))
	return info, nil
}

// Predict scores a profile with the active model
func (r *Registry) Predict(p *models.Profile) (Result, Info, error) {
	a := r.current.Load()
	if a == nil {
		return Result{}, Info{}, apperr.Internal(nil, "No prediction model is loaded")
	}
	return Predict(a.model, p), a.info, nil
}

func lookup(name string) (Info, bool) {
	for _, c := range Catalogue {
		if c.Name == name {
			return c, true
		}
	}
	return Info{}, false
}
