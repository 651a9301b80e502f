package ocr

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

const plateWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

// plateTokenRE matches plate-shaped runs in spaceless OCR text: current,
// prefix, suffix and dateless UK formats.
var plateTokenRE = regexp.MustCompile(
	`[A-Z]{2}[0-9]{2}[A-Z]{3}|[A-Z][0-9]{1,3}[A-Z]{3}|[A-Z]{3}[0-9]{1,3}[A-Z]|[0-9]{1,4}[A-Z]{1,3}|[A-Z]{1,3}[0-9]{1,4}`)

// TesseractBackend reads plates with the classical Tesseract engine. It runs
// several page-segmentation passes and scores each plate-shaped token by its
// vote share across passes, a cheap confidence proxy in lieu of per-word
// confidences.
type TesseractBackend struct {
	psmModes []gosseract.PageSegMode
}

func NewTesseractBackend() *TesseractBackend {
	return &TesseractBackend{
		psmModes: []gosseract.PageSegMode{
			gosseract.PSM_SINGLE_LINE,
			gosseract.PSM_SINGLE_BLOCK,
			gosseract.PSM_SINGLE_WORD,
			gosseract.PSM_SPARSE_TEXT,
		},
	}
}

func (b *TesseractBackend) Name() string { return BackendTesseract }

// ExtractCandidates OCRs the (already preprocessed) image once per PSM mode
// and aggregates plate-shaped tokens across passes.
func (b *TesseractBackend) ExtractCandidates(ctx context.Context, imagePath string) ([]Candidate, error) {
	votes := map[string]int{}
	passes := 0
	for _, mode := range b.psmModes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := b.runPass(imagePath, mode)
		if err != nil {
			log.Printf("tesseract pass psm=%d failed: %v", mode, err)
			continue
		}
		passes++
		for _, tok := range extractPlateTokens(text) {
			votes[tok]++
		}
	}
	if passes == 0 {
		return nil, ErrNoPlate
	}
	cands := make([]Candidate, 0, len(votes))
	for tok, n := range votes {
		conf := float64(n) / float64(passes)
		if conf > 1 {
			conf = 1
		}
		cands = append(cands, Candidate{Text: tok, Confidence: conf})
	}
	SortCandidates(cands)
	return cands, nil
}

func (b *TesseractBackend) runPass(imagePath string, mode gosseract.PageSegMode) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	_ = client.SetLanguage("eng")
	_ = client.SetWhitelist(plateWhitelist)
	_ = client.SetPageSegMode(mode)
	client.SetImage(imagePath)
	return client.Text()
}

// extractPlateTokens pulls plate-shaped tokens out of raw OCR text. Spacing
// is unreliable in OCR output, so matching runs on the spaceless upper-cased
// text; duplicates within one pass collapse to a single token.
func extractPlateTokens(text string) []string {
	flat := strings.ToUpper(strings.Join(strings.Fields(text), ""))
	flat = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, flat)
	if flat == "" {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, m := range plateTokenRE.FindAllString(flat, -1) {
		if len(m) < 5 || len(m) > 10 {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
