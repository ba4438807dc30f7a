package storage

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// MediaStore talks to the hosted object-storage provider over its signed
// form-upload API. Files are addressed by path (used as the provider public
// id) and become publicly reachable at the returned URL.
//
// Configuration via environment variables:
// MEDIA_CLOUD_NAME, MEDIA_API_KEY, MEDIA_API_SECRET, MEDIA_FOLDER (optional)
type MediaStore struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	client    *http.Client
}

var ErrObjectStoreUnavailable = errors.New("object storage is not configured")

func NewMediaStore() *MediaStore {
	return &MediaStore{
		cloudName: os.Getenv("MEDIA_CLOUD_NAME"),
		apiKey:    os.Getenv("MEDIA_API_KEY"),
		apiSecret: os.Getenv("MEDIA_API_SECRET"),
		folder:    os.Getenv("MEDIA_FOLDER"),
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload writes the file under the given path and returns its public URL.
// The provider accepts base64 form uploads signed with SHA1 over the
// public_id and timestamp.
func (s *MediaStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if s.cloudName == "" || s.apiKey == "" || s.apiSecret == "" {
		return "", ErrObjectStoreUnavailable
	}

	endpoint := "https://api.cloudinary.com/v1_1/" + s.cloudName + "/image/upload"

	publicID := strings.TrimSuffix(path, ext(path))
	if s.folder != "" {
		publicID = s.folder + "/" + publicID
	}

	payload := base64.StdEncoding.EncodeToString(data)

	form := url.Values{}
	form.Add("file", "data:"+contentType+";base64,"+payload)
	form.Add("api_key", s.apiKey)
	form.Add("public_id", publicID)
	form.Add("overwrite", "true")

	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	form.Add("timestamp", timestamp)

	// Signature string for the provider (must be SHA1)
	signatureString := fmt.Sprintf("overwrite=true&public_id=%s&timestamp=%s%s", publicID, timestamp, s.apiSecret)
	signature := fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))
	form.Add("signature", signature)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("object storage upload failed: status %d: %s", res.StatusCode, truncate(string(body), 256))
	}

	var uploadRes struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &uploadRes); err != nil {
		return "", fmt.Errorf("object storage upload: bad response: %w", err)
	}
	if uploadRes.Error.Message != "" {
		return "", fmt.Errorf("object storage upload: %s", uploadRes.Error.Message)
	}

	publicURL := uploadRes.SecureURL
	if publicURL == "" {
		publicURL = uploadRes.URL
	}
	if publicURL == "" {
		return "", errors.New("object storage upload: no URL returned")
	}
	return publicURL, nil
}

func ext(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i:]
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
