package ocr

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tradesnap/pkg/plate"
)

// Candidate is one plate reading with a confidence in [0,1].
type Candidate struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Backend extracts plate candidates from an image on disk. Implementations
// must return candidates sorted by descending confidence.
type Backend interface {
	Name() string
	ExtractCandidates(ctx context.Context, imagePath string) ([]Candidate, error)
}

// Backend names accepted in configuration.
const (
	BackendTesseract = "tesseract"
	BackendANPR      = "anpr"
)

// Config selects and tunes the OCR engine. The backend is chosen here, once,
// at startup; an empty or unknown name is a hard startup error.
type Config struct {
	Backend       string
	ANPREndpoint  string
	ANPRTimeout   time.Duration
	MinConfidence float64
	Preprocess    PreprocessOptions
}

// Engine runs the preprocess-then-extract pipeline over a single backend.
type Engine struct {
	backend    Backend
	preprocess PreprocessOptions

	mu            sync.RWMutex
	minConfidence float64
}

// NewEngine builds the engine for the configured backend. It fails loudly
// when no backend (or an unknown one) is configured instead of probing.
func NewEngine(cfg Config) (*Engine, error) {
	var backend Backend
	switch cfg.Backend {
	case BackendTesseract:
		backend = NewTesseractBackend()
	case BackendANPR:
		if cfg.ANPREndpoint == "" {
			return nil, fmt.Errorf("%w: anpr backend selected but no endpoint set", ErrNoBackend)
		}
		backend = NewANPRBackend(cfg.ANPREndpoint, cfg.ANPRTimeout)
	case "":
		return nil, ErrNoBackend
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrNoBackend, cfg.Backend)
	}
	opts := cfg.Preprocess
	if opts.TargetWidth == 0 || opts.TargetHeight == 0 {
		opts = DefaultPreprocessOptions()
	}
	return &Engine{backend: backend, preprocess: opts, minConfidence: cfg.MinConfidence}, nil
}

// BackendName reports which backend the engine was built with.
func (e *Engine) BackendName() string { return e.backend.Name() }

// SetMinConfidence replaces the acceptance threshold. Safe to call while the
// engine is serving, which lets config reloads retune it without a restart.
func (e *Engine) SetMinConfidence(v float64) {
	e.mu.Lock()
	e.minConfidence = v
	e.mu.Unlock()
}

func (e *Engine) threshold() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.minConfidence
}

// ReadPlate preprocesses the image and returns all candidates sorted by
// descending confidence. An empty result is reported as ErrNoPlate.
func (e *Engine) ReadPlate(ctx context.Context, imagePath string) ([]Candidate, error) {
	tmp, cleanup, err := PreprocessToTemp(imagePath, e.preprocess)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	cands, err := e.backend.ExtractCandidates(ctx, tmp)
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", e.backend.Name(), err)
	}
	SortCandidates(cands)
	if len(cands) == 0 {
		return nil, ErrNoPlate
	}
	return cands, nil
}

// BestPlate returns the highest-confidence candidate that both clears the
// configured confidence threshold and normalizes to a valid registration,
// along with every candidate for display. ErrNoPlate when none qualifies.
func (e *Engine) BestPlate(ctx context.Context, imagePath string) (string, []Candidate, error) {
	cands, err := e.ReadPlate(ctx, imagePath)
	if err != nil {
		return "", nil, err
	}
	min := e.threshold()
	for _, c := range cands {
		if c.Confidence < min {
			break
		}
		if reg, err := plate.Normalize(c.Text); err == nil {
			return reg, cands, nil
		}
	}
	return "", cands, ErrNoPlate
}

// SortCandidates orders by descending confidence, then text for stability.
func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Confidence != cands[j].Confidence {
			return cands[i].Confidence > cands[j].Confidence
		}
		return cands[i].Text < cands[j].Text
	})
}
