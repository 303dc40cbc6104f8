package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
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

	notifsvc "fowlgate/internal/notification/service"
	notifstore "fowlgate/internal/notification/store"
	"fowlgate/internal/platform/token"
	regmodels "fowlgate/internal/registry/models"
	regsvc "fowlgate/internal/registry/service"
	regstore "fowlgate/internal/registry/store"
	"fowlgate/internal/transfer/handler"
	"fowlgate/internal/transfer/service"
	"fowlgate/internal/transfer/store/activelock"
	"fowlgate/internal/transfer/store/ownership"
	transferstore "fowlgate/internal/transfer/store/transfer"
)

type env struct {
	server *httptest.Server
	tokens *token.Service

	seller      id.UserID
	buyer       id.UserID
	fowl        id.FowlID
	sellerToken string
	buyerToken  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry := regsvc.New(regstore.NewInMemory())
	svc := service.New(
		transferstore.NewInMemory(),
		ownership.NewInMemory(),
		activelock.NewInMemory(),
		registry,
		service.WithNotifier(notifsvc.New(notifstore.NewInMemory())),
		service.WithLogger(logger),
	)

	tokens := token.NewService("test-signing-key", "fowlgate-test")

	r := chi.NewRouter()
	r.Use(metadata.Capture)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens, logger))
		handler.New(svc, logger).Register(r)
	})

	e := &env{
		server: httptest.NewServer(r),
		tokens: tokens,
		seller: id.UserID(uuid.New()),
		buyer:  id.UserID(uuid.New()),
		fowl:   id.FowlID(uuid.New()),
	}
	t.Cleanup(e.server.Close)

	require.NoError(t, registry.Register(t.Context(), &regmodels.Fowl{
		ID: e.fowl, OwnerID: e.seller, Name: "Raja", Breed: "Aseel",
	}))

	var err error
	e.sellerToken, err = tokens.IssueAccessToken(e.seller, time.Hour)
	require.NoError(t, err)
	e.buyerToken, err = tokens.IssueAccessToken(e.buyer, time.Hour)
	require.NoError(t, err)
	return e
}

func (e *env) do(t *testing.T, method, path, bearer string, body any) *http.Response {
	t.Helper()
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, buf)
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *env) initiateBody() map[string]any {
	return map[string]any{
		"assetId":     e.fowl.String(),
		"buyerId":     e.buyer.String(),
		"agreedPrice": 1500,
		"currency":    "INR",
		"sellerDetails": map[string]any{
			"birdName": "Raja",
			"birdType": "Aseel",
		},
	}
}

func (e *env) initiate(t *testing.T) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/transfers", e.sellerToken, e.initiateBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody[map[string]any](t, resp)
	return body["id"].(string)
}

func fullMatchBody() map[string]any {
	return map[string]any{
		"colorMatch": true, "ageMatch": true, "genderMatch": true,
		"weightMatch": true, "heightMatch": true, "healthMatch": true,
	}
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)

	t.Run("missing token", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/transfers", "", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/transfers", "not-a-jwt", nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := e.tokens.IssueAccessToken(e.seller, -time.Minute)
		require.NoError(t, err)
		resp := e.do(t, http.MethodGet, "/transfers", expired, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestInitiateEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		e := newEnv(t)
		resp := e.do(t, http.MethodPost, "/transfers", e.sellerToken, e.initiateBody())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody[map[string]any](t, resp)
		assert.Equal(t, "INITIATED", body["status"])
		assert.Equal(t, e.fowl.String(), body["assetId"])
		assert.Equal(t, e.seller.String(), body["sellerId"])
		assert.Equal(t, true, body["isActive"])
		// Fraud prevention data never leaves the server.
		_, leaked := body["fraudPreventionData"]
		assert.False(t, leaked)
	})

	t.Run("invalid asset id", func(t *testing.T) {
		e := newEnv(t)
		body := e.initiateBody()
		body["assetId"] = "not-a-uuid"
		resp := e.do(t, http.MethodPost, "/transfers", e.sellerToken, body)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("non-owner gets 403", func(t *testing.T) {
		e := newEnv(t)
		resp := e.do(t, http.MethodPost, "/transfers", e.buyerToken, e.initiateBody())
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("duplicate active transfer gets 409", func(t *testing.T) {
		e := newEnv(t)
		e.initiate(t)
		resp := e.do(t, http.MethodPost, "/transfers", e.sellerToken, e.initiateBody())
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("malformed json", func(t *testing.T) {
		e := newEnv(t)
		req, err := http.NewRequest(http.MethodPost, e.server.URL+"/transfers", bytes.NewReader([]byte("{")))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+e.sellerToken)
		resp, err := e.server.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestVerificationEndpoint(t *testing.T) {
	t.Run("buyer verifies", func(t *testing.T) {
		e := newEnv(t)
		transferID := e.initiate(t)

		resp := e.do(t, http.MethodPost, "/transfers/"+transferID+"/verification", e.buyerToken, fullMatchBody())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody[map[string]any](t, resp)
		assert.Equal(t, "BUYER_VERIFIED", body["status"])
		verification := body["buyerVerification"].(map[string]any)
		assert.Equal(t, true, verification["overallMatch"])
		assert.Equal(t, float64(100), verification["verificationScore"])
	})

	t.Run("client-supplied aggregate is recomputed", func(t *testing.T) {
		e := newEnv(t)
		transferID := e.initiate(t)

		body := fullMatchBody()
		body["healthMatch"] = false
		body["overallMatch"] = true
		body["verificationScore"] = 100
		resp := e.do(t, http.MethodPost, "/transfers/"+transferID+"/verification", e.buyerToken, body)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		out := decodeBody[map[string]any](t, resp)
		assert.Equal(t, "DISPUTED", out["status"])
		verification := out["buyerVerification"].(map[string]any)
		assert.Equal(t, false, verification["overallMatch"])
		assert.Equal(t, float64(83), verification["verificationScore"])
	})

	t.Run("seller gets 403", func(t *testing.T) {
		e := newEnv(t)
		transferID := e.initiate(t)
		resp := e.do(t, http.MethodPost, "/transfers/"+transferID+"/verification", e.sellerToken, fullMatchBody())
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("unknown transfer gets 404", func(t *testing.T) {
		e := newEnv(t)
		resp := e.do(t, http.MethodPost, "/transfers/"+uuid.NewString()+"/verification", e.buyerToken, fullMatchBody())
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestHandoverAndOwnershipEndpoints(t *testing.T) {
	e := newEnv(t)
	transferID := e.initiate(t)
	resp := e.do(t, http.MethodPost, "/transfers/"+transferID+"/verification", e.buyerToken, fullMatchBody())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	t.Run("handover requires a signature", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/transfers/"+transferID+"/handover", e.sellerToken, map[string]any{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("ownership record absent before completion", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/transfers/"+transferID+"/ownership", e.sellerToken, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("both confirmations complete the transfer", func(t *testing.T) {
		resp := e.do(t, http.MethodPost, "/transfers/"+transferID+"/handover", e.sellerToken,
			map[string]any{"signature": "sig-seller"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]any](t, resp)
		assert.Equal(t, "HANDOVER_CONFIRMED", body["status"])

		resp = e.do(t, http.MethodPost, "/transfers/"+transferID+"/handover", e.buyerToken,
			map[string]any{"signature": "sig-buyer", "paymentConfirmed": true, "paymentMethod": "upi"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body = decodeBody[map[string]any](t, resp)
		assert.Equal(t, "COMPLETED", body["status"])
		assert.Equal(t, false, body["isActive"])
	})

	t.Run("ownership record visible to parties after completion", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/transfers/"+transferID+"/ownership", e.buyerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		record := decodeBody[map[string]any](t, resp)
		assert.Equal(t, e.seller.String(), record["previousOwnerId"])
		assert.Equal(t, e.buyer.String(), record["newOwnerId"])
		assert.NotEmpty(t, record["verificationHash"])
		assert.Equal(t, false, record["isReversible"])
	})

	t.Run("ownership history lists the hop", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, fmt.Sprintf("/fowls/%s/ownership-history", e.fowl), e.buyerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string][]map[string]any](t, resp)
		require.Len(t, body["history"], 1)
		assert.Equal(t, e.buyer.String(), body["history"][0]["newOwnerId"])
	})
}

func TestCancellationEndpoint(t *testing.T) {
	t.Run("seller cancels with a reason", func(t *testing.T) {
		e := newEnv(t)
		transferID := e.initiate(t)

		resp := e.do(t, http.MethodPost, "/transfers/"+transferID+"/cancellation", e.sellerToken,
			map[string]any{"reason": "buyer unreachable"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]any](t, resp)
		assert.Equal(t, "CANCELLED", body["status"])
		assert.Equal(t, "buyer unreachable", body["notes"])
	})

	t.Run("reason is required", func(t *testing.T) {
		e := newEnv(t)
		transferID := e.initiate(t)
		resp := e.do(t, http.MethodPost, "/transfers/"+transferID+"/cancellation", e.sellerToken, map[string]any{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("buyer cannot cancel", func(t *testing.T) {
		e := newEnv(t)
		transferID := e.initiate(t)
		resp := e.do(t, http.MethodPost, "/transfers/"+transferID+"/cancellation", e.buyerToken,
			map[string]any{"reason": "changed my mind"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestGetAndListEndpoints(t *testing.T) {
	e := newEnv(t)
	transferID := e.initiate(t)

	t.Run("party reads the transfer", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/transfers/"+transferID, e.buyerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string]any](t, resp)
		assert.Equal(t, transferID, body["id"])
	})

	t.Run("stranger gets 403", func(t *testing.T) {
		stranger, err := e.tokens.IssueAccessToken(id.UserID(uuid.New()), time.Hour)
		require.NoError(t, err)
		resp := e.do(t, http.MethodGet, "/transfers/"+transferID, stranger, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("list shows the caller's transfers", func(t *testing.T) {
		resp := e.do(t, http.MethodGet, "/transfers", e.sellerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string][]map[string]any](t, resp)
		require.Len(t, body["transfers"], 1)
		assert.Equal(t, transferID, body["transfers"][0]["id"])
	})

	t.Run("stranger list is empty", func(t *testing.T) {
		stranger, err := e.tokens.IssueAccessToken(id.UserID(uuid.New()), time.Hour)
		require.NoError(t, err)
		resp := e.do(t, http.MethodGet, "/transfers", stranger, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody[map[string][]map[string]any](t, resp)
		assert.Empty(t, body["transfers"])
	})
}
