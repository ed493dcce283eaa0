package opentdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"trivia-quiz-service/internal/domain"
)

const (
	DefaultURL    = "https://opentdb.com/api.php"
	defaultAmount = 15
)

// Open Trivia DB response codes.
const (
	codeSuccess      = 0
	codeNoResults    = 1
	codeInvalidParam = 2
	codeRateLimit    = 5
)

// ErrRateLimited is returned when the API throttles the caller.
var ErrRateLimited = errors.New("opentdb: rate limited")

type apiResponse struct {
	ResponseCode int                  `json:"response_code"`
	Results      []domain.RawQuestion `json:"results"`
}

// Client fetches raw question batches from Open Trivia DB.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient returns a client. A nil httpClient uses http.DefaultClient; an empty baseURL uses DefaultURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

// FetchQuestions requests amount multiple-choice questions. An empty batch is an error.
func (c *Client) FetchQuestions(ctx context.Context, amount int) ([]domain.RawQuestion, error) {
	if amount <= 0 {
		amount = defaultAmount
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("opentdb: parse url: %w", err)
	}
	q := u.Query()
	q.Set("amount", strconv.Itoa(amount))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opentdb: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("opentdb returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("opentdb: decode: %w", err)
	}

	switch payload.ResponseCode {
	case codeSuccess:
	case codeRateLimit:
		return nil, ErrRateLimited
	case codeNoResults, codeInvalidParam:
		return nil, fmt.Errorf("opentdb response_code=%d: %w", payload.ResponseCode, domain.ErrNoQuestions)
	default:
		return nil, fmt.Errorf("opentdb response_code=%d", payload.ResponseCode)
	}

	if len(payload.Results) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return payload.Results, nil
}
