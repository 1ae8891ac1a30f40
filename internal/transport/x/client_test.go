package x

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&Config{
		BearerToken: "test-token",
		BaseURL:     srv.URL,
		Timeout:     5 * time.Second,
		Logger:      zap.NewNop(),
	})
}

func TestCreatePost_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/2/tweets" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["text"] != "ancient wisdom" {
			t.Errorf("unexpected payload %v", payload)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1234","text":"ancient wisdom"}}`))
	})

	id, err := c.CreatePost(context.Background(), "ancient wisdom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "1234" {
		t.Errorf("expected id 1234, got %q", id)
	}
}

func TestCreateReply_CarriesParentID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Reply struct {
				InReplyToTweetID string `json:"in_reply_to_tweet_id"`
			} `json:"reply"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Reply.InReplyToTweetID != "42" {
			t.Errorf("expected parent id 42, got %q", payload.Reply.InReplyToTweetID)
		}
		_, _ = w.Write([]byte(`{"data":{"id":"43","text":"reply"}}`))
	})

	if _, err := c.CreateReply(context.Background(), "42", "reply"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDo_RateLimitCarriesRetryAfter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.CreatePost(context.Background(), "wisdom")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate-limit error, got %v", err)
	}

	var rl *domain.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatal("expected RateLimitError in chain")
	}
	if rl.RetryAfter != 120*time.Second {
		t.Errorf("expected retry-after 120s, got %s", rl.RetryAfter)
	}
}

func TestDo_MissingRetryAfterIsZero(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.CreatePost(context.Background(), "wisdom")
	var rl *domain.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if rl.RetryAfter != 0 {
		t.Errorf("expected zero retry-after, got %s", rl.RetryAfter)
	}
}

func TestDo_AuthFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.GetSelf(context.Background())
	if !errors.Is(err, domain.ErrAuthFailed) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}

func TestDo_ServerErrorIsTransient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream broke"))
	})

	_, err := c.SearchRecent(context.Background(), "wisdom", 10)
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrAuthFailed) {
		t.Errorf("5xx must not map to rate-limit or auth failure: %v", err)
	}
}

func TestListMentionsSince_PassesCursor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/users/99/mentions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("since_id"); got != "4" {
			t.Errorf("expected since_id=4, got %q", got)
		}
		_, _ = w.Write([]byte(`{"data":[
			{"id":"5","text":"o great toad","author_id":"7"},
			{"id":"6","text":"guide me","author_id":"8"}
		]}`))
	})

	posts, err := c.ListMentionsSince(context.Background(), "99", "4", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != "5" || posts[1].ID != "6" {
		t.Errorf("unexpected posts %v", posts)
	}
}

func TestGetSelf_ParsesIdentity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/users/me" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"data":{"id":"99","username":"koiyu_oracle"}}`))
	})

	id, err := c.GetSelf(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ID != "99" || id.Username != "koiyu_oracle" {
		t.Errorf("unexpected identity %+v", id)
	}
}
