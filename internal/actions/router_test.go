package actions_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wikinews-agent/internal/actions"
	"github.com/wikinews-agent/pkg/logger"
)

func TestRouterHealth(t *testing.T) {
	h, _, _ := newHandler(t)
	srv := httptest.NewServer(actions.NewRouter(h, logger.Nop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body["status"])
}

func TestRouterGetConfig(t *testing.T) {
	h, _, _ := newHandler(t)
	srv := httptest.NewServer(actions.NewRouter(h, logger.Nop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body actions.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.NotNil(t, body.Config)
	require.Equal(t, 360, body.Config.ScheduleIntervalMinutes)
}

func TestRouterPostAction(t *testing.T) {
	h, _, proc := newHandler(t)
	srv := httptest.NewServer(actions.NewRouter(h, logger.Nop()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/actions", "application/json", strings.NewReader(`{"action":"processFeeds"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, proc.calls)

	var body actions.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Equal(t, 3, body.Result.SuccessfulFeeds)
}

func TestRouterPostUnknownAction(t *testing.T) {
	h, _, _ := newHandler(t)
	srv := httptest.NewServer(actions.NewRouter(h, logger.Nop()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/actions", "application/json", strings.NewReader(`{"action":"nope"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body actions.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "Unknown action", body.Error)
}

func TestRouterPostMalformedBody(t *testing.T) {
	h, _, _ := newHandler(t)
	srv := httptest.NewServer(actions.NewRouter(h, logger.Nop()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/actions", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
