package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/grocery-backend/api/middleware"
	"github.com/angelmondragon/grocery-backend/pkg/enums"
)

type testRequest struct {
	method string
	target string
	body   any
	userID uuid.UUID
	params map[string]string
}

func serve(t *testing.T, handler http.Handler, tr testRequest) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if tr.body != nil {
		if raw, ok := tr.body.(string); ok {
			body = bytes.NewBufferString(raw)
		} else {
			payload, err := json.Marshal(tr.body)
			require.NoError(t, err)
			body = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(tr.method, tr.target, body)
	ctx := req.Context()
	if tr.userID != uuid.Nil {
		ctx = middleware.WithPrincipal(ctx, middleware.Principal{UserID: tr.userID, Role: enums.RoleCustomer})
	}
	if len(tr.params) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range tr.params {
			rctx.URLParams.Add(key, value)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req.WithContext(ctx))
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Error.Code
}
