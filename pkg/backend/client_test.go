package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "ana", r.PostForm.Get("username"))
		assert.Equal(t, "s3cret", r.PostForm.Get("password"))
		w.Write([]byte(`{"access_token":"tok","token_type":"bearer","user_name":"Ana"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.Login(context.Background(), "ana", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.AccessToken)
	assert.Equal(t, "Ana", res.UserName)
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{name: "string detail", status: 401, body: `{"detail":"Incorrect username or password"}`, wantDetail: "Incorrect username or password"},
		{name: "validation list", status: 422, body: `{"detail":[{"msg":"field required"},{"msg":"bad email"}]}`, wantDetail: "field required; bad email"},
		{name: "no body", status: 500, body: ``, wantDetail: ""},
		{name: "html body", status: 502, body: `<html>bad gateway</html>`, wantDetail: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).KPIs(context.Background(), "tok")
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
		})
	}
}

func TestBearerAndStatusHelpers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"Cliente não encontrado"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	_, err := c.MySummary(context.Background(), "bad")
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(err))

	_, err = c.MySummary(context.Background(), "good")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Cliente não encontrado", DetailOf(err, "fallback"))
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, time.Second).IssueBoleto(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "fallback", DetailOf(err, "fallback"))
}

func TestMalformedJSONIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Chat(context.Background(), "", ChatRequest{Message: "oi", SessionID: "s"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFindCustomerEscapesEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a+b@x.com", r.URL.Query().Get("email"))
		w.Write([]byte(`{"id":7,"nome":"Ana","email":"a+b@x.com","canal_preferido":"site"}`))
	}))
	defer srv.Close()

	cust, err := NewClient(srv.URL, time.Second).FindCustomerByEmail(context.Background(), "a+b@x.com")
	require.NoError(t, err)
	assert.Equal(t, 7, cust.ID)
}
