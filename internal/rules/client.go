package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/careops/clinicops/internal/config"
	"github.com/careops/clinicops/internal/domain/treatment"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the outbound contract consumed by the prescription flow.
type Service interface {
	EstimateCost(ctx context.Context, protocolID, patientID uuid.UUID) (*CostEstimate, error)
	Validate(ctx context.Context, regimen []treatment.RegimenItem, patientID uuid.UUID) (*ValidationResult, error)
	DetectActiveTreatmentConflicts(ctx context.Context, patientID uuid.UUID) (*ConflictReport, error)
}

// Client is a thin JSON client over the rules service. Retry and timeout
// policy live on the injected http.Client; callers only decide what a
// failure degrades to.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(cfg config.RulesConfig, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log,
	}
}

func (c *Client) EstimateCost(ctx context.Context, protocolID, patientID uuid.UUID) (*CostEstimate, error) {
	url := fmt.Sprintf("%s/v1/estimates?protocol_id=%s&patient_id=%s", c.baseURL, protocolID, patientID)

	var est CostEstimate
	if err := c.getJSON(ctx, url, &est); err != nil {
		return nil, fmt.Errorf("estimating cost: %w", err)
	}
	return &est, nil
}

func (c *Client) Validate(ctx context.Context, regimen []treatment.RegimenItem, patientID uuid.UUID) (*ValidationResult, error) {
	var result ValidationResult
	err := c.postJSON(ctx, c.baseURL+"/v1/validations", validateRequest{
		PatientID: patientID,
		Regimen:   regimen,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("validating regimen: %w", err)
	}
	return &result, nil
}

func (c *Client) DetectActiveTreatmentConflicts(ctx context.Context, patientID uuid.UUID) (*ConflictReport, error) {
	url := fmt.Sprintf("%s/v1/conflicts?patient_id=%s", c.baseURL, patientID)

	var report ConflictReport
	if err := c.getJSON(ctx, url, &report); err != nil {
		return nil, fmt.Errorf("detecting treatment conflicts: %w", err)
	}
	return &report, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.log.Warn("rules service returned non-OK status",
			zap.String("url", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("rules service: unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding rules response: %w", err)
	}
	return nil
}
