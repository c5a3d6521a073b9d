package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/iudanet/escrutinio/pkg/api"
)

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu    sync.RWMutex
	token string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// SetToken задает access token для защищенных запросов
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &resp); err != nil {
		return nil, fmt.Errorf("health request failed: %w", err)
	}
	return &resp, nil
}

// SubmitVotes отправляет батч дельт голосов
func (c *Client) SubmitVotes(ctx context.Context, payload api.VotePayload) (*api.VoteResponse, error) {
	var resp api.VoteResponse
	path := "/api/v1/escrutinios/" + url.PathEscape(payload.EscrutinioID) + "/votes"
	if err := c.doRequest(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return nil, fmt.Errorf("submit votes request failed: %w", err)
	}
	return &resp, nil
}

// Counters получает текущие счетчики escrutinio
func (c *Client) Counters(ctx context.Context, escrutinioID string) (*api.CountersResponse, error) {
	var resp api.CountersResponse
	path := "/api/v1/escrutinios/" + url.PathEscape(escrutinioID) + "/counters"
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("counters request failed: %w", err)
	}
	return &resp, nil
}

// StartPapeleta открывает бюллетень. Повтор с тем же papeletaId возвращает тот же бюллетень.
func (c *Client) StartPapeleta(ctx context.Context, escrutinioID string, req api.StartPapeletaRequest) (*api.PapeletaResponse, error) {
	var resp api.PapeletaResponse
	path := "/api/v1/escrutinios/" + url.PathEscape(escrutinioID) + "/papeletas"
	if err := c.doRequest(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("start papeleta request failed: %w", err)
	}
	return &resp, nil
}

// PapeletaStatus получает состояние бюллетеня
func (c *Client) PapeletaStatus(ctx context.Context, papeletaID string) (*api.PapeletaResponse, error) {
	var resp api.PapeletaResponse
	if err := c.doRequest(ctx, http.MethodGet, papeletaPath(papeletaID, ""), nil, &resp); err != nil {
		return nil, fmt.Errorf("papeleta status request failed: %w", err)
	}
	return &resp, nil
}

// PapeletaVote добавляет выбор в буфер бюллетеня
func (c *Client) PapeletaVote(ctx context.Context, papeletaID string, req api.PapeletaVoteRequest) (*api.PapeletaResponse, error) {
	var resp api.PapeletaResponse
	if err := c.doRequest(ctx, http.MethodPost, papeletaPath(papeletaID, "/votes"), req, &resp); err != nil {
		return nil, fmt.Errorf("papeleta vote request failed: %w", err)
	}
	return &resp, nil
}

// PapeletaVotesBatch заменяет буфер бюллетеня целиком
func (c *Client) PapeletaVotesBatch(ctx context.Context, papeletaID string, req api.VotesBatchRequest) (*api.PapeletaResponse, error) {
	var resp api.PapeletaResponse
	if err := c.doRequest(ctx, http.MethodPut, papeletaPath(papeletaID, "/votes"), req, &resp); err != nil {
		return nil, fmt.Errorf("papeleta votes batch request failed: %w", err)
	}
	return &resp, nil
}

// AnularPapeleta аннулирует бюллетень
func (c *Client) AnularPapeleta(ctx context.Context, papeletaID string, req api.AnularRequest) (*api.AnularResponse, error) {
	var resp api.AnularResponse
	if err := c.doRequest(ctx, http.MethodPost, papeletaPath(papeletaID, "/anular"), req, &resp); err != nil {
		return nil, fmt.Errorf("anular request failed: %w", err)
	}
	return &resp, nil
}

// CommitPapeleta применяет буфер бюллетеня к счетчикам
func (c *Client) CommitPapeleta(ctx context.Context, papeletaID string) (*api.CommitResponse, error) {
	var resp api.CommitResponse
	if err := c.doRequest(ctx, http.MethodPost, papeletaPath(papeletaID, "/commit"), nil, &resp); err != nil {
		return nil, fmt.Errorf("commit request failed: %w", err)
	}
	return &resp, nil
}

func papeletaPath(id, suffix string) string {
	return "/api/v1/papeletas/" + url.PathEscape(id) + suffix
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func newStatusError(resp *http.Response, body []byte) *StatusError {
	se := &StatusError{Code: resp.StatusCode}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		se.Field = errResp.Field
		se.Message = errResp.Message
		if se.Message == "" {
			se.Message = errResp.Error
		}
	} else {
		se.Message = string(body)
	}

	if s := resp.Header.Get("Retry-After"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			se.RetryAfter = time.Duration(secs) * time.Second
		}
	}

	return se
}
