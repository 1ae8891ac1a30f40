// Package x is the posting-platform client over the X API v2. Failures map
// onto the domain taxonomy: 429 becomes a RateLimitError carrying the
// Retry-After hint, 401/403 become ErrAuthFailed, anything else is a
// transient error the orchestration layer logs and abandons.
package x

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
	"github.com/Danyalalam/X-automation/internal/metrics"
)

// Compile-time check: Client implements domain.Platform.
var _ domain.Platform = (*Client)(nil)

// Config holds the posting-platform settings.
type Config struct {
	BearerToken string
	BaseURL     string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Client talks to the X API v2.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	logger  *zap.Logger
}

// NewClient creates a platform client with a bounded request timeout.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: cfg.BaseURL,
		token:   cfg.BearerToken,
		logger:  cfg.Logger,
	}
}

type postPayload struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
}

type postResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

type postItem struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type listResponse struct {
	Data []postItem `json:"data"`
}

type userListResponse struct {
	Data []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

type selfResponse struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

// CreatePost publishes a primary post and returns its id.
func (c *Client) CreatePost(ctx context.Context, text string) (string, error) {
	return c.createTweet(ctx, "create_post", postPayload{Text: text})
}

// CreateReply publishes a reply under parentID and returns the reply id.
func (c *Client) CreateReply(ctx context.Context, parentID, text string) (string, error) {
	payload := postPayload{Text: text}
	payload.Reply = &struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	}{InReplyToTweetID: parentID}
	return c.createTweet(ctx, "create_reply", payload)
}

func (c *Client) createTweet(ctx context.Context, op string, payload postPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", op, err)
	}

	var resp postResponse
	if err := c.do(ctx, op, http.MethodPost, "/2/tweets", nil, bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("%s: response carried no id", op)
	}
	return resp.Data.ID, nil
}

// SearchRecent returns recent posts matching the query.
func (c *Client) SearchRecent(ctx context.Context, query string, maxResults int) ([]domain.Post, error) {
	params := url.Values{
		"query":        {query},
		"max_results":  {strconv.Itoa(maxResults)},
		"tweet.fields": {"id,text,author_id,created_at"},
	}

	var resp listResponse
	if err := c.do(ctx, "search_recent", http.MethodGet, "/2/tweets/search/recent", params, nil, &resp); err != nil {
		return nil, err
	}
	return toPosts(resp.Data), nil
}

// ListFollowing returns the ids of accounts userID follows.
func (c *Client) ListFollowing(ctx context.Context, userID string) ([]string, error) {
	var resp userListResponse
	path := "/2/users/" + url.PathEscape(userID) + "/following"
	if err := c.do(ctx, "list_following", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Data))
	for _, u := range resp.Data {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// ListMentionsSince returns mentions of userID newer than sinceID.
// An empty sinceID fetches the most recent mentions.
func (c *Client) ListMentionsSince(ctx context.Context, userID, sinceID string, maxResults int) ([]domain.Post, error) {
	params := url.Values{
		"max_results":  {strconv.Itoa(maxResults)},
		"tweet.fields": {"id,text,author_id,created_at"},
	}
	if sinceID != "" {
		params.Set("since_id", sinceID)
	}

	var resp listResponse
	path := "/2/users/" + url.PathEscape(userID) + "/mentions"
	if err := c.do(ctx, "list_mentions", http.MethodGet, path, params, nil, &resp); err != nil {
		return nil, err
	}
	return toPosts(resp.Data), nil
}

// GetSelf returns the authenticated identity. Used as the startup auth probe.
func (c *Client) GetSelf(ctx context.Context) (domain.Identity, error) {
	var resp selfResponse
	if err := c.do(ctx, "get_self", http.MethodGet, "/2/users/me", nil, nil, &resp); err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{ID: resp.Data.ID, Username: resp.Data.Username}, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, body io.Reader, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.PlatformOperationsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(op, resp); err != nil {
		metrics.PlatformOperationsTotal.WithLabelValues(op, statusLabel(resp.StatusCode)).Inc()
		c.logger.Debug("Platform call failed",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
		)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.PlatformOperationsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	metrics.PlatformOperationsTotal.WithLabelValues(op, "success").Inc()
	return nil
}

// classifyStatus maps non-2xx responses onto the domain error taxonomy.
func classifyStatus(op string, resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", op, domain.NewRateLimited(retryAfter(resp)))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, domain.ErrAuthFailed)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, snippet)
	}
}

// retryAfter extracts the pause hint from a 429 response. Zero when absent;
// the retry wrapper substitutes its default.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	if v := resp.Header.Get("x-rate-limit-reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if until := time.Until(time.Unix(epoch, 0)); until > 0 {
				return until
			}
		}
	}
	return 0
}

func statusLabel(code int) string {
	switch code {
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "auth_failed"
	default:
		return "error"
	}
}

func toPosts(items []postItem) []domain.Post {
	posts := make([]domain.Post, 0, len(items))
	for _, it := range items {
		posts = append(posts, domain.Post{
			ID:        it.ID,
			Text:      it.Text,
			AuthorID:  it.AuthorID,
			CreatedAt: it.CreatedAt,
		})
	}
	return posts
}
