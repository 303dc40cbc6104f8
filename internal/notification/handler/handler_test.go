package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/middleware/auth"
	"fowlgate/pkg/platform/middleware/metadata"

	"fowlgate/internal/notification/handler"
	"fowlgate/internal/notification/models"
	"fowlgate/internal/notification/service"
	"fowlgate/internal/notification/store"
	"fowlgate/internal/platform/token"
)

type env struct {
	server  *httptest.Server
	service *service.Service
	tokens  *token.Service

	recipient      id.UserID
	recipientToken string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), service.WithLogger(logger))
	tokens := token.NewService("test-signing-key", "fowlgate-test")

	r := chi.NewRouter()
	r.Use(metadata.Capture)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, logger))
		handler.New(svc, logger).Register(r)
	})

	e := &env{
		server:    httptest.NewServer(r),
		service:   svc,
		tokens:    tokens,
		recipient: id.UserID(uuid.New()),
	}
	t.Cleanup(e.server.Close)

	var err error
	e.recipientToken, err = tokens.IssueAccessToken(e.recipient, time.Hour)
	require.NoError(t, err)
	return e
}

func (e *env) do(t *testing.T, method, path, bearer string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, nil)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (e *env) dispatch(t *testing.T) models.TransferNotificationType {
	t.Helper()
	e.service.Dispatch(context.Background(), e.recipient, id.UserID(uuid.New()),
		id.TransferID(uuid.New()), id.FowlID(uuid.New()), models.TypeTransferInitiated)
	return models.TypeTransferInitiated
}

func TestListEndpoint(t *testing.T) {
	t.Run("requires auth", func(t *testing.T) {
		e := newEnv(t)
		resp := e.do(t, http.MethodGet, "/notifications", "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("empty list", func(t *testing.T) {
		e := newEnv(t)
		resp := e.do(t, http.MethodGet, "/notifications", e.recipientToken)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string][]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Empty(t, body["notifications"])
	})

	t.Run("returns the caller's notifications", func(t *testing.T) {
		e := newEnv(t)
		typ := e.dispatch(t)

		resp := e.do(t, http.MethodGet, "/notifications", e.recipientToken)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string][]map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body["notifications"], 1)
		n := body["notifications"][0]
		assert.Equal(t, typ.String(), n["notificationType"])
		assert.Equal(t, typ.Title(), n["title"])
		assert.Equal(t, true, n["actionRequired"])
	})

	t.Run("other users see nothing", func(t *testing.T) {
		e := newEnv(t)
		e.dispatch(t)

		other, err := e.tokens.IssueAccessToken(id.UserID(uuid.New()), time.Hour)
		require.NoError(t, err)
		resp := e.do(t, http.MethodGet, "/notifications", other)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string][]json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Empty(t, body["notifications"])
	})
}

func TestMarkReadEndpoint(t *testing.T) {
	e := newEnv(t)
	e.dispatch(t)

	resp := e.do(t, http.MethodGet, "/notifications", e.recipientToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string][]map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	require.Len(t, body["notifications"], 1)
	notificationID := body["notifications"][0]["id"].(string)

	t.Run("recipient marks read", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/notifications/"+notificationID+"/read", e.recipientToken)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("non-recipient gets 403", func(t *testing.T) {
		other, err := e.tokens.IssueAccessToken(id.UserID(uuid.New()), time.Hour)
		require.NoError(t, err)
		resp := e.do(t, http.MethodPost, "/notifications/"+notificationID+"/read", other)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("invalid id gets 400", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/notifications/not-a-uuid/read", e.recipientToken)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown id gets 404", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/notifications/"+uuid.NewString()+"/read", e.recipientToken)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
