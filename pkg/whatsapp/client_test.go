package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		BaseURL:       srv.URL,
		PhoneNumberID: "1234567890",
		AccessToken:   "test-token",
		Timeout:       2 * time.Second,
	})
}

func TestClient_SendTemplate(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/1234567890/messages", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "wamid.HBgMNTk4"}},
		})
	}))
	defer srv.Close()

	id, err := newTestClient(srv).SendTemplate(
		context.Background(), "59891234567", "fine_notice", "es",
		[]string{"Juan Perez", "SAB1234", "2500"},
	)
	require.NoError(t, err)
	require.Equal(t, "wamid.HBgMNTk4", id)

	require.Equal(t, "whatsapp", got.MessagingProduct)
	require.Equal(t, "template", got.Type)
	require.NotNil(t, got.Template)
	require.Equal(t, "fine_notice", got.Template.Name)
	require.Equal(t, "es", got.Template.Language.Code)
	require.Len(t, got.Template.Components, 1)
	require.Len(t, got.Template.Components[0].Parameters, 3)
}

func TestClient_SendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "text", req.Type)
		require.NotNil(t, req.Text)
		require.Contains(t, req.Text.Body, "SAB1234")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"messages": []map[string]string{{"id": "wamid.2x"}},
		})
	}))
	defer srv.Close()

	id, err := newTestClient(srv).SendText(context.Background(), "59891234567", "Fine pending for SAB1234")
	require.NoError(t, err)
	require.Equal(t, "wamid.2x", id)
}

func TestClient_SendTemplate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "(#132001) Template name does not exist",
				"type":    "OAuthException",
				"code":    132001,
			},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SendTemplate(context.Background(), "5989", "missing", "es", nil)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 132001, apiErr.Code)
	require.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus)
}

func TestClient_Send_NoMessageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]string{}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).SendText(context.Background(), "5989", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no message id")
}
