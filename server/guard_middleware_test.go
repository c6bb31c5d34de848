package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/stretchr/testify/assert"
)

func TestGuardRejectsNonLoopbackOrigin(t *testing.T) {
	_, router := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/broker/current-token", nil)
	req.Header.Set(BrokerSecretHeader, testBrokerSecret)
	// httptest's default RemoteAddr is 192.0.2.1, already non-loopback; make
	// the origin explicit anyway.
	req.RemoteAddr = "203.0.113.7:44321"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "localhost only")
}

func TestGuardRejectsMissingOrWrongSecret(t *testing.T) {
	_, router := newTestServer(t, nil)

	for _, secret := range []string{"", "wrong-secret"} {
		req := httptest.NewRequest(http.MethodGet, "/broker/current-token", nil)
		if secret != "" {
			req.Header.Set(BrokerSecretHeader, secret)
		}
		w := perform(router, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestGuardFailsClosedWithoutConfiguredSecret(t *testing.T) {
	s, router := newTestServer(t, nil)
	s.Config.BrokerSecret = ""

	req := httptest.NewRequest(http.MethodGet, "/broker/current-token", nil)
	req.Header.Set(BrokerSecretHeader, "")
	w := perform(router, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Even a guessed empty-vs-empty match must not open the door.
	req = httptest.NewRequest(http.MethodGet, "/broker/current-token", nil)
	w = perform(router, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardChecksOrderAndRateLimit(t *testing.T) {
	_, router := newTestServer(t, nil)
	ts := httptest.NewServer(router)
	defer ts.Close()

	e := httpexpect.Default(t, ts.URL)

	// Missing secret never reaches the limiter.
	e.GET("/broker/current-token").
		Expect().
		Status(http.StatusUnauthorized).
		JSON().Object().HasValue("error", "access_denied")

	// Ten authenticated requests pass the guard (404: no session yet), the
	// eleventh hits the limit.
	for i := 0; i < 10; i++ {
		e.GET("/broker/current-token").
			WithHeader(BrokerSecretHeader, testBrokerSecret).
			Expect().
			Status(http.StatusNotFound)
	}
	e.GET("/broker/current-token").
		WithHeader(BrokerSecretHeader, testBrokerSecret).
		Expect().
		Status(http.StatusTooManyRequests).
		JSON().Object().HasValue("error", "rate_limited")
}

func TestGuardedEndpointsAllCovered(t *testing.T) {
	_, router := newTestServer(t, nil)

	for _, path := range []string{
		"/broker/current-token",
		"/broker/wordpress-token/some-code",
		"/broker/events",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.7:44321"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
	}
}
