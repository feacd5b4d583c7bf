package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
)

const (
	maxWidth    = 800
	maxHeight   = 600
	jpegQuality = 80
)

// Ingestor downloads a source image, compresses it and returns an embeddable
// data URI. Callers treat any failure as best-effort: log and continue.
type Ingestor struct {
	client   *http.Client
	maxBytes int64
}

// NewIngestor creates a new media ingestor
func NewIngestor(fetchTimeout time.Duration, maxBytes int64) *Ingestor {
	return &Ingestor{
		client:   &http.Client{Timeout: fetchTimeout},
		maxBytes: maxBytes,
	}
}

// Ingest fetches the image at url, resizes it to fit within 800x600 without
// enlargement, re-encodes it as JPEG quality 80 and returns it as a base64
// data URI.
func (i *Ingestor) Ingest(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, i.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}
	if int64(len(data)) > i.maxBytes {
		return "", fmt.Errorf("image exceeds %d bytes", i.maxBytes)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	// Fit never enlarges, matching the source pipeline's behavior.
	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
