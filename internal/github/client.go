// Package github 访问 GitHub GraphQL/REST API，为同步、健康度和推荐提供上游数据。
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL    = "https://api.github.com"
	defaultRPS        = 5
	defaultMaxRetries = 3
	defaultBackoff    = time.Second
	apiVersion        = "2022-11-28"
)

// Config 客户端配置
type Config struct {
	Token             string
	BaseURL           string // REST 根地址
	GraphQLURL        string // 为空时为 BaseURL + /graphql
	RequestsPerSecond float64
	MaxRetries        int
	Backoff           time.Duration // 首次重试等待，之后指数翻倍
	Timeout           time.Duration
}

// HTTPClient 便于测试替换
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client GitHub API 客户端
type Client struct {
	token      string
	baseURL    string
	graphqlURL string
	maxRetries int
	backoff    time.Duration
	httpClient HTTPClient
	limiter    *rate.Limiter
	now        func() time.Time
}

// NewClient httpClient 为 nil 时按 cfg.Timeout 创建
func NewClient(cfg Config, httpClient HTTPClient) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	gql := cfg.GraphQLURL
	if gql == "" {
		gql = base + "/graphql"
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		token:      cfg.Token,
		baseURL:    base,
		graphqlURL: gql,
		maxRetries: retries,
		backoff:    backoff,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		now:        time.Now,
	}
}

// IsConfigured 是否配置了 token
func (c *Client) IsConfigured() bool {
	return c.token != ""
}

// APIError 非 2xx 响应
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API 错误 %d: %s", e.Status, e.Body)
}

// Retryable 5xx 与 429 可重试
func (e *APIError) Retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

func isRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// 网络层错误
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// getJSON GET baseURL+path 并解码
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doWithRetry(ctx, http.MethodGet, c.baseURL+path, nil, out)
}

// doWithRetry 限流 + 指数退避重试
func (c *Client) doWithRetry(ctx context.Context, method, url string, body []byte, out any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("等待限流失败: %w", err)
		}
		err := c.do(ctx, method, url, body, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) || attempt == c.maxRetries-1 {
			break
		}

		wait := c.backoff * time.Duration(1<<uint(attempt))
		slog.Warn("GitHub 请求失败，准备重试", "attempt", attempt+1, "backoff", wait, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: truncate(string(respBody), 300)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// graphql 执行查询，data 解码到 out
func (c *Client) graphql(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("序列化 GraphQL 请求失败: %w", err)
	}
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := c.doWithRetry(ctx, http.MethodPost, c.graphqlURL, body, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("GraphQL 错误: %s", strings.Join(msgs, "; "))
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("解析 GraphQL 数据失败: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
