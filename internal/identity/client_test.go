package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/selfreg/domain"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   []byte
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, func() []recordedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		requests []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			body:   body,
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Endpoint: srv.URL + "/osiam/", Timeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	return client, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestCreateUser(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/scim+json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"42","userName":"alice","active":false,
			"urn:test:reg":{"activationToken":"tok"}}`))
	})

	user := &domain.User{UserName: "alice", Active: domain.Bool(false)}
	created, err := client.CreateUser(context.Background(), user, "secret")
	require.NoError(t, err)

	assert.Equal(t, "42", created.ID)
	ext, ok := created.Extension("urn:test:reg")
	require.True(t, ok)
	tok, _ := ext.StringField("activationToken")
	assert.Equal(t, "tok", tok)

	require.Len(t, requests(), 1)
	got := requests()[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/osiam/Users", got.path)
	assert.Equal(t, "Bearer secret", got.auth)
	assert.JSONEq(t, `{"userName":"alice","active":false}`, string(got.body))
}

func TestGetCurrentUser(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"7","userName":"bob"}`))
	})

	user, err := client.GetCurrentUser(context.Background(), "activation-token")
	require.NoError(t, err)
	assert.Equal(t, "bob", user.UserName)

	got := requests()[0]
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/osiam/Me", got.path)
	assert.Equal(t, "Bearer activation-token", got.auth)
}

func TestUpdateUserSendsPatch(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"42","active":true}`))
	})

	update := (&domain.UpdateUser{}).DeleteExtensionField("urn:test:reg", "activationToken").UpdateActive(true)
	updated, err := client.UpdateUser(context.Background(), "42", *update, "tok")
	require.NoError(t, err)
	assert.True(t, updated.IsActive())

	got := requests()[0]
	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, "/osiam/Users/42", got.path)

	var body map[string]any
	require.NoError(t, json.Unmarshal(got.body, &body))
	assert.Equal(t, true, body["active"])
	assert.Equal(t, []any{"urn:test:reg.activationToken"}, body["meta"].(map[string]any)["attributes"])
}

func TestRemoteRejectionBecomesRequestError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "scim detail", status: http.StatusConflict, body: `{"detail":"userName already taken"}`, message: "userName already taken"},
		{name: "oauth description", status: http.StatusUnauthorized, body: `{"error":"invalid_token","description":"token expired"}`, message: "token expired"},
		{name: "no body", status: http.StatusForbidden, message: "Forbidden"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.CreateUser(context.Background(), &domain.User{UserName: "x"}, "t")
			var reqErr *domain.RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tc.status, reqErr.StatusCode)
			assert.Equal(t, tc.message, reqErr.Message)
		})
	}
}

func TestUndecodableBodyIsClientError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.GetCurrentUser(context.Background(), "t")
	var clientErr *domain.ClientError
	assert.ErrorAs(t, err, &clientErr)
}

func TestUnreachableServiceIsClientError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	client, err := NewClient(Config{Endpoint: endpoint, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = client.GetCurrentUser(context.Background(), "t")
	var clientErr *domain.ClientError
	assert.ErrorAs(t, err, &clientErr)
	assert.Error(t, client.Ping(context.Background()))
}

func TestNewClientRejectsRelativeEndpoint(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "/osiam"}, nil)
	assert.Error(t, err)
}
