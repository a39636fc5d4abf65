package gatewayrepo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"bikerental/util/httpx"
)

type httpRepo struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTP talks to the gateway at baseURL; a nil client uses httpx.Client().
func NewHTTP(baseURL, apiKey string, client *http.Client) Repo {
	if client == nil {
		client = httpx.Client()
	}
	return &httpRepo{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, client: client}
}

func (r *httpRepo) Charge(ctx context.Context, req ChargeReq) (*ChargeResp, error) {
	body := map[string]any{
		"external_id": req.ExternalID,
		"amount":      req.Amount,
		"method":      req.Method,
		"payer_email": req.PayerEmail,
		"description": req.Description,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/charges", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(r.apiKey, "")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway charge failed: %s", resp.Status)
	}

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("gateway: empty charge id")
	}
	if out.Status != "" && out.Status != "SUCCEEDED" {
		return nil, fmt.Errorf("gateway: charge %s status %s", out.ID, out.Status)
	}
	return &ChargeResp{Reference: out.ID, Status: out.Status}, nil
}
