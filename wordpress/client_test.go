package wordpress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func stubUpstream(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("upstream received unparseable form: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostFormValue("code"); got != "upstreamcode" {
			t.Errorf("code = %q", got)
		}
		if got := r.PostFormValue("client_secret"); got != "shhh" {
			t.Errorf("client_secret = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testClient(tokenURL string) *Client {
	return New(Config{
		ClientID:     "client-1",
		ClientSecret: "shhh",
		RedirectURI:  "http://127.0.0.1:8090/oauth/callback",
		Scope:        "global",
		TokenURL:     tokenURL,
	})
}

func TestAuthCodeURL(t *testing.T) {
	c := testClient("")
	raw := c.AuthCodeURL("s1")

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("unparseable consent URL: %v", err)
	}
	q := u.Query()
	if q.Get("state") != "s1" {
		t.Fatalf("state = %q", q.Get("state"))
	}
	if q.Get("client_id") != "client-1" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("redirect_uri") != "http://127.0.0.1:8090/oauth/callback" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("scope") != "global" {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
}

func TestExchangeExtractsBlogIdentity(t *testing.T) {
	ts := stubUpstream(t, http.StatusOK,
		`{"access_token":"tok123","token_type":"bearer","blog_id":"42","blog_url":"http://example.com","scope":"global"}`)
	c := testClient(ts.URL)

	tok, err := c.Exchange(context.Background(), "upstreamcode")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if tok.AccessToken != "tok123" {
		t.Fatalf("access token = %q", tok.AccessToken)
	}
	if tok.BlogID != "42" || tok.BlogURL != "http://example.com" {
		t.Fatalf("blog identity = %q %q", tok.BlogID, tok.BlogURL)
	}
}

func TestExchangeNumericBlogID(t *testing.T) {
	ts := stubUpstream(t, http.StatusOK,
		`{"access_token":"tok123","token_type":"bearer","blog_id":42,"blog_url":"http://example.com"}`)
	c := testClient(ts.URL)

	tok, err := c.Exchange(context.Background(), "upstreamcode")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if tok.BlogID != "42" {
		t.Fatalf("blog_id = %q, want 42", tok.BlogID)
	}
}

func TestExchangeUpstreamError(t *testing.T) {
	ts := stubUpstream(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
	c := testClient(ts.URL)

	if _, err := c.Exchange(context.Background(), "upstreamcode"); err == nil {
		t.Fatal("non-2xx upstream response did not error")
	}
}

func TestExchangeEmptyAccessToken(t *testing.T) {
	ts := stubUpstream(t, http.StatusOK, `{"access_token":"","token_type":"bearer"}`)
	c := testClient(ts.URL)

	if _, err := c.Exchange(context.Background(), "upstreamcode"); err == nil {
		t.Fatal("empty access token accepted")
	}
}
