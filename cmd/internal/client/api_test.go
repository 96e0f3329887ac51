package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeAPIError(w http.ResponseWriter, status int, msg string, fields []FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"message":    msg,
		"errors":     fields,
	})
}

func TestAPIErrorKindMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		kind   ErrorKind
	}{
		{"validation", http.StatusBadRequest, KindValidation},
		{"authentication", http.StatusUnauthorized, KindAuthentication},
		{"authorization expired", http.StatusForbidden, KindAuthorizationExpired},
		{"not found", http.StatusNotFound, KindNotFound},
		{"conflict", http.StatusConflict, KindConflict},
		{"unmapped", http.StatusTeapot, KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeAPIError(w, tc.status, "nope", nil)
			}))
			defer srv.Close()

			api, err := NewAPI(srv.URL)
			require.NoError(t, err)

			_, err = api.Me(context.Background(), "whatever")
			require.Error(t, err)
			require.Equal(t, tc.kind, KindOf(err))

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tc.status, apiErr.StatusCode)
			require.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestAPIValidationCarriesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "validation failed", []FieldError{
			{Field: "email", Message: "email is invalid"},
		})
	}))
	defer srv.Close()

	api, err := NewAPI(srv.URL)
	require.NoError(t, err)

	_, _, err = api.Register(context.Background(), "A", "bad", "pw", "pw")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindValidation, apiErr.Kind)
	require.Len(t, apiErr.Fields, 1)
	require.Equal(t, "email", apiErr.Fields[0].Field)
}

func TestAPINetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	api, err := NewAPI(url)
	require.NoError(t, err)

	_, err = api.Refresh(context.Background())
	require.Equal(t, KindNetworkUnreachable, KindOf(err))
}

func TestAPICanceledContextIsNotNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api, err := NewAPI(url)
	require.NoError(t, err)

	_, err = api.Refresh(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAPISendsBearerAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Old-pass1!", body["currentPassword"])
		require.Equal(t, "New-pass1!", body["newPassword"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "password updated"})
	}))
	defer srv.Close()

	api, err := NewAPI(srv.URL)
	require.NoError(t, err)
	require.NoError(t, api.UpdatePassword(context.Background(), "tok-1", "Old-pass1!", "New-pass1!"))
}

func TestKindOfForeignError(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(context.Canceled))
	require.Equal(t, KindUnknown, KindOf(nil))
}
