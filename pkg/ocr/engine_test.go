package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/disintegration/imaging"
)

func TestNewEngineRequiresExplicitBackend(t *testing.T) {
	if _, err := NewEngine(Config{}); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("empty backend: got %v, want ErrNoBackend", err)
	}
	if _, err := NewEngine(Config{Backend: "easyocr"}); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("unknown backend: got %v, want ErrNoBackend", err)
	}
	if _, err := NewEngine(Config{Backend: BackendANPR}); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("anpr without endpoint: got %v, want ErrNoBackend", err)
	}
	eng, err := NewEngine(Config{Backend: BackendTesseract})
	if err != nil {
		t.Fatalf("tesseract backend: %v", err)
	}
	if eng.BackendName() != BackendTesseract {
		t.Fatalf("backend name %q", eng.BackendName())
	}
}

func TestSortCandidates(t *testing.T) {
	cands := []Candidate{
		{Text: "ZZ99ZZZ", Confidence: 0.2},
		{Text: "AB12CDE", Confidence: 0.9},
		{Text: "AA11AAA", Confidence: 0.9},
	}
	SortCandidates(cands)
	if cands[0].Text != "AA11AAA" || cands[1].Text != "AB12CDE" || cands[2].Text != "ZZ99ZZZ" {
		t.Fatalf("unexpected order: %+v", cands)
	}
}

func TestExtractPlateTokens(t *testing.T) {
	toks := extractPlateTokens("AB12 CDE\nsome noise")
	if len(toks) == 0 || toks[0] != "AB12CDE" {
		t.Fatalf("expected AB12CDE first, got %v", toks)
	}
	if toks := extractPlateTokens(""); toks != nil {
		t.Fatalf("empty text should yield no tokens, got %v", toks)
	}
	// duplicates within a pass collapse
	toks = extractPlateTokens("KT68XYZ KT68XYZ")
	count := 0
	for _, tok := range toks {
		if tok == "KT68XYZ" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected a single KT68XYZ token, got %v", toks)
	}
}

func writeTestPlateImage(t *testing.T) string {
	t.Helper()
	img := imaging.New(400, 130, color.NRGBA{240, 220, 60, 255})
	f, err := os.CreateTemp(t.TempDir(), "plate-*.png")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	_ = f.Close()
	if err := imaging.Save(img, f.Name()); err != nil {
		t.Fatalf("save: %v", err)
	}
	return f.Name()
}

func TestANPRBackendRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anprRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ImageBase64 == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(anprResponse{Candidates: []anprCandidate{
			{Text: "AB12CDE", Confidence: 0.97},
			{Text: "A812CDE", Confidence: 0.41},
		}})
	}))
	defer srv.Close()

	eng, err := NewEngine(Config{Backend: BackendANPR, ANPREndpoint: srv.URL, MinConfidence: 0.6})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	path := writeTestPlateImage(t)
	reg, cands, err := eng.BestPlate(context.Background(), path)
	if err != nil {
		t.Fatalf("BestPlate: %v", err)
	}
	if reg != "AB12 CDE" {
		t.Fatalf("normalized plate %q, want AB12 CDE", reg)
	}
	if len(cands) != 2 || cands[0].Text != "AB12CDE" {
		t.Fatalf("candidates %+v", cands)
	}
}

func TestANPRBackendErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(anprResponse{ErrorMessage: "model not loaded"})
	}))
	defer srv.Close()

	b := NewANPRBackend(srv.URL, 0)
	path := writeTestPlateImage(t)
	if _, err := b.ExtractCandidates(context.Background(), path); err == nil {
		t.Fatal("expected error from error_message response")
	}
}

func TestBestPlateHonorsConfidenceThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(anprResponse{Candidates: []anprCandidate{
			{Text: "AB12CDE", Confidence: 0.10},
		}})
	}))
	defer srv.Close()

	eng, err := NewEngine(Config{Backend: BackendANPR, ANPREndpoint: srv.URL, MinConfidence: 0.5})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	path := writeTestPlateImage(t)
	_, _, err = eng.BestPlate(context.Background(), path)
	if !errors.Is(err, ErrNoPlate) {
		t.Fatalf("expected ErrNoPlate below threshold, got %v", err)
	}
}

func TestReadPlateDecodeFailure(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "bogus-*.png")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	_, _ = f.WriteString("not a png")
	_ = f.Close()

	eng, err := NewEngine(Config{Backend: BackendTesseract})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	_, err = eng.ReadPlate(context.Background(), f.Name())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
