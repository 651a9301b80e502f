package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// ANPRBackend reads plates through a remote neural-network inference service.
// The wire shape is the usual LPR contract: base64 image in, candidate plates
// with confidences out.
type ANPRBackend struct {
	endpoint string
	client   *http.Client
}

type anprRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type anprCandidate struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type anprResponse struct {
	Candidates   []anprCandidate `json:"candidates"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

func NewANPRBackend(endpoint string, timeout time.Duration) *ANPRBackend {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ANPRBackend{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (b *ANPRBackend) Name() string { return BackendANPR }

// ExtractCandidates sends the image to the inference endpoint and returns
// its candidates sorted by descending confidence.
func (b *ANPRBackend) ExtractCandidates(ctx context.Context, imagePath string) ([]Candidate, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	body, err := json.Marshal(anprRequest{ImageBase64: base64.StdEncoding.EncodeToString(raw)})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anpr request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anpr request: unexpected status %d", resp.StatusCode)
	}
	var out anprResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("anpr response: %w", err)
	}
	if out.ErrorMessage != "" {
		return nil, fmt.Errorf("anpr response: %s", out.ErrorMessage)
	}
	cands := make([]Candidate, 0, len(out.Candidates))
	for _, c := range out.Candidates {
		if c.Text == "" {
			continue
		}
		cands = append(cands, Candidate{Text: c.Text, Confidence: c.Confidence})
	}
	SortCandidates(cands)
	return cands, nil
}
