package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

const (
	testBaseURL   = "https://api.test"
	testSearchURL = testBaseURL + searchPath
)

func newTestClient(t *testing.T, transport http.RoundTripper) *Client {
	t.Helper()
	c, err := NewClient(
		Credentials{BearerToken: "token"},
		WithHTTPClient(&http.Client{Transport: transport}),
		WithBaseURL(testBaseURL+"/"),
		WithRateLimit(0),
		WithRetryBackoff(0),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func tweetPage(start, n int, next string) map[string]interface{} {
	data := make([]map[string]interface{}, 0, n)
	for i := start; i < start+n; i++ {
		data = append(data, map[string]interface{}{
			"id":             fmt.Sprintf("%d", i),
			"text":           fmt.Sprintf("lego post %d", i),
			"created_at":     "2019-06-01T10:00:00.000Z",
			"public_metrics": map[string]int{"retweet_count": i % 2},
		})
	}
	meta := map[string]interface{}{"result_count": n}
	if next != "" {
		meta["next_token"] = next
	}
	return map[string]interface{}{"data": data, "meta": meta}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Credentials{BearerToken: "  "}); !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestSearchPaginates(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testSearchURL, func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("Authorization"); got != "Bearer token" {
			return httpmock.NewStringResponse(http.StatusUnauthorized, ""), nil
		}
		q := req.URL.Query()
		if q.Get("query") != "lego" || q.Get("tweet.fields") != "created_at,public_metrics" {
			return httpmock.NewStringResponse(http.StatusBadRequest, "bad query"), nil
		}
		if q.Get("start_time") != "2019-06-01T00:00:00Z" {
			return httpmock.NewStringResponse(http.StatusBadRequest, "bad start"), nil
		}
		switch q.Get("next_token") {
		case "":
			if q.Get("max_results") != "100" {
				return httpmock.NewStringResponse(http.StatusBadRequest, "bad max_results"), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, tweetPage(0, 100, "page2"))
		case "page2":
			if q.Get("max_results") != "50" {
				return httpmock.NewStringResponse(http.StatusBadRequest, "bad max_results"), nil
			}
			return httpmock.NewJsonResponse(http.StatusOK, tweetPage(100, 50, "page3"))
		}
		return httpmock.NewStringResponse(http.StatusBadRequest, "unexpected token"), nil
	})

	c := newTestClient(t, transport)
	posts, err := c.Search(context.Background(), SearchOptions{
		Query:     "lego",
		Count:     150,
		StartTime: time.Date(2019, time.June, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(posts) != 150 {
		t.Fatalf("posts = %d, want 150", len(posts))
	}
	if posts[1].RetweetCount != 1 || posts[1].ID != "1" {
		t.Fatalf("unexpected post %+v", posts[1])
	}
	if want := time.Date(2019, time.June, 1, 10, 0, 0, 0, time.UTC); !posts[0].CreatedAt.Equal(want) {
		t.Fatalf("created_at = %v, want %v", posts[0].CreatedAt, want)
	}
	if got := transport.GetTotalCallCount(); got != 2 {
		t.Fatalf("requests = %d, want 2", got)
	}
}

func TestSearchClampsPageSize(t *testing.T) {
	var maxResults string
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testSearchURL, func(req *http.Request) (*http.Response, error) {
		maxResults = req.URL.Query().Get("max_results")
		return httpmock.NewJsonResponse(http.StatusOK, tweetPage(0, 10, ""))
	})

	c := newTestClient(t, transport)
	posts, err := c.Search(context.Background(), SearchOptions{Query: "lego", Count: 3})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if maxResults != "10" {
		t.Fatalf("max_results = %s, want 10", maxResults)
	}
	if len(posts) != 3 {
		t.Fatalf("posts = %d, want 3", len(posts))
	}
}

func TestSearchErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   error
		wantCalls int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ErrUnauthorized, wantCalls: 1},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited, wantCalls: maxAttempts},
		{name: "server error", status: http.StatusServiceUnavailable, wantErr: ErrAPIFailure, wantCalls: maxAttempts},
		{name: "bad request", status: http.StatusBadRequest, wantErr: ErrAPIFailure, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", testSearchURL, httpmock.NewStringResponder(tt.status, `{"title":"error"}`))

			c := newTestClient(t, transport)
			posts, err := c.Search(context.Background(), SearchOptions{Query: "lego", Count: 10})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if posts != nil {
				t.Fatalf("posts = %v, want nil on error", posts)
			}
			if got := transport.GetTotalCallCount(); got != tt.wantCalls {
				t.Fatalf("requests = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestSearchRecoversFromTransientFailure(t *testing.T) {
	var calls int32
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testSearchURL, func(req *http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return httpmock.NewStringResponse(http.StatusBadGateway, ""), nil
		}
		return httpmock.NewJsonResponse(http.StatusOK, tweetPage(0, 10, ""))
	})

	c := newTestClient(t, transport)
	posts, err := c.Search(context.Background(), SearchOptions{Query: "lego", Count: 10})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(posts) != 10 {
		t.Fatalf("posts = %d, want 10", len(posts))
	}
}

func TestSearchPayloadErrors(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", testSearchURL, httpmock.NewStringResponder(http.StatusOK,
		`{"errors":[{"title":"Invalid Request","detail":"query too long"}]}`))

	c := newTestClient(t, transport)
	if _, err := c.Search(context.Background(), SearchOptions{Query: "lego", Count: 10}); !errors.Is(err, ErrAPIFailure) {
		t.Fatalf("err = %v, want ErrAPIFailure", err)
	}
}
