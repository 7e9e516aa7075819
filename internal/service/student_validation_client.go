package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

type studentValidationRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type studentValidationResponse struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// StudentValidationClient asks an external registry service whether a student may be registered.
// A nil client accepts every student.
type StudentValidationClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewStudentValidationClient constructs a client for the service at baseURL.
func NewStudentValidationClient(baseURL string, timeout time.Duration, logger *zap.Logger) *StudentValidationClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentValidationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Validate posts the student to <base>/validate and returns the verdict with any messages.
func (c *StudentValidationClient) Validate(ctx context.Context, name, email string) (bool, []string, error) {
	if c == nil {
		return true, nil, nil
	}
	body, err := jsonCodec.Marshal(studentValidationRequest{Name: name, Email: email})
	if err != nil {
		return false, nil, fmt.Errorf("encode validation request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate", bytes.NewReader(body))
	if err != nil {
		return false, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return false, nil, fmt.Errorf("call student validation: %w", err)
	}
	defer resp.Body.Close()
	c.logger.Debug("student validation call", zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, nil, fmt.Errorf("student validation returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var verdict studentValidationResponse
	if err := jsonCodec.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return false, nil, fmt.Errorf("decode validation response: %w", err)
	}
	return verdict.IsValid, verdict.Errors, nil
}
