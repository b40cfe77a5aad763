package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FirebaseMediaStore uploads blobs to a Firebase Storage bucket over its REST
// surface and returns public download URLs. Each object gets a fresh download
// token so the URL works without authentication.
type FirebaseMediaStore struct {
	bucket    string
	authToken string
	client    *http.Client
	logger    *zap.Logger
}

func NewFirebaseMediaStore(bucket, authToken string, logger *zap.Logger) *FirebaseMediaStore {
	return &FirebaseMediaStore{
		bucket:    bucket,
		authToken: authToken,
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// Upload stores data under key and returns the public retrieval URL.
func (s *FirebaseMediaStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	downloadToken := uuid.NewString()

	endpoint := fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o?uploadType=media&name=%s",
		s.bucket, url.QueryEscape(key),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request for %s: %w", key, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Goog-Meta-Firebase-Storage-Download-Tokens", downloadToken)
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload %s: unexpected status %d: %s", key, resp.StatusCode, body)
	}

	publicURL := fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		s.bucket, url.PathEscape(key), downloadToken,
	)
	s.logger.Debug("image uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return publicURL, nil
}
