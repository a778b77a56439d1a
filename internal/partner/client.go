package partner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"order-import-service/internal/models"
	"order-import-service/internal/util"
)

// maxResponseSize bounds the partner response body (64MB)
const maxResponseSize = 64 * 1024 * 1024

// Client fetches order payloads from the partner order API
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a partner client for the given URL
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchOrders performs a GET on the configured URL and decodes a JSON array of orders.
// A JSON null body decodes to an empty slice.
func (c *Client) FetchOrders(ctx context.Context) ([]models.ExternalOrderPayload, error) {
	ctx, span := util.StartSpan(ctx, "PartnerClient.FetchOrders")
	defer span.End()

	if c.url == "" {
		return nil, fmt.Errorf("partner order URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build partner request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("partner request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("partner returned status %d", resp.StatusCode)
	}

	var payloads []models.ExternalOrderPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&payloads); err != nil {
		if err == io.EOF {
			return []models.ExternalOrderPayload{}, nil
		}
		return nil, fmt.Errorf("failed to decode partner response: %w", err)
	}

	if payloads == nil {
		payloads = []models.ExternalOrderPayload{}
	}
	return payloads, nil
}
