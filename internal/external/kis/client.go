package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wonny/kfin/pkg/config"
	"github.com/wonny/kfin/pkg/httputil"
	"github.com/wonny/kfin/pkg/logger"
	"github.com/wonny/kfin/pkg/redis"
)

// tokenRedisKey is where the OAuth access token is cached so multiple
// processes share one token (KIS invalidates older tokens on re-issue).
const tokenRedisKey = "kfin:kis:access_token"

// Client handles communication with the KIS (한국투자증권) API.
// KIS API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	redis      *redis.Client
	logger     *logger.Logger
	cfg        config.KISConfig

	// In-process token fallback when Redis is disabled
	accessToken string
	tokenExpiry time.Time
	tokenMu     sync.Mutex
}

// NewClient creates a new KIS API client
func NewClient(cfg config.KISConfig, httpClient *httputil.Client, rds *redis.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		redis:      rds,
		logger:     log.WithField("module", "kis"),
		cfg:        cfg,
	}
}

// TokenResponse represents the OAuth token response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// getToken returns a valid access token, preferring the Redis cache and
// refreshing from the token endpoint when missing or expired.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Redis first: the TTL mirrors the token lifetime
	if cached, err := c.redis.GetString(ctx, tokenRedisKey); err == nil && cached != "" {
		return cached, nil
	}

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	url := fmt.Sprintf("%s/oauth2/tokenP", c.cfg.BaseURL)
	body := fmt.Sprintf(`{"grant_type":"client_credentials","appkey":"%s","appsecret":"%s"}`,
		c.cfg.AppKey, c.cfg.AppSecret)

	resp, err := c.httpClient.Post(ctx, url, "application/json", strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	// 1분 여유
	ttl := tokenResp.ExpiresIn - 60
	if ttl < 0 {
		ttl = tokenResp.ExpiresIn
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(ttl) * time.Second)

	if err := c.redis.SetString(ctx, tokenRedisKey, tokenResp.AccessToken, ttl); err != nil {
		c.logger.WithError(err).Warn("Failed to cache KIS token in Redis")
	}

	c.logger.WithFields(map[string]interface{}{
		"expires_in": tokenResp.ExpiresIn,
	}).Info("KIS access token refreshed")

	return c.accessToken, nil
}

// apiEnvelope is the common KIS response wrapper
type apiEnvelope struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

// get performs an authenticated GET and decodes the response into out.
func (c *Client) get(ctx context.Context, path, trID, query string, out interface{}) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	url := fmt.Sprintf("%s%s?%s", c.cfg.BaseURL, path, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", "Bearer "+token)
	req.Header.Set("appkey", c.cfg.AppKey)
	req.Header.Set("appsecret", c.cfg.AppSecret)
	req.Header.Set("tr_id", trID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
