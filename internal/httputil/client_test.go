package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoReply struct {
	Got string `json:"got"`
}

func TestNewStandardClient_DefaultTimeout(t *testing.T) {
	t.Parallel()
	c := NewStandardClient(nil)
	assert.Equal(t, DefaultTimeout, c.Timeout)

	custom := &http.Client{}
	assert.Same(t, custom, NewStandardClient(custom).Client)
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes 2xx body", func(t *testing.T) {
		t.Parallel()
		mock := NewMockHTTPClient().AddResponse(http.StatusOK, `{"got":"squat"}`)
		var out echoReply
		err := PostJSON(context.Background(), mock, "http://model/predict", map[string]string{"exercise": "squat"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "squat", out.Got)
		assert.JSONEq(t, `{"exercise":"squat"}`, string(mock.Body(0)))
		assert.Equal(t, "application/json", mock.Requests[0].Header.Get("Content-Type"))
	})

	t.Run("non-2xx wraps ErrStatus", func(t *testing.T) {
		t.Parallel()
		mock := NewMockHTTPClient().AddResponse(http.StatusBadGateway, "upstream down")
		err := PostJSON(context.Background(), mock, "http://model", struct{}{}, &echoReply{})
		assert.ErrorIs(t, err, ErrStatus)
	})

	t.Run("transport error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection refused")
		mock := NewMockHTTPClient().AddErrorResponse(boom)
		err := PostJSON(context.Background(), mock, "http://model", struct{}{}, &echoReply{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		mock := NewMockHTTPClient().AddResponse(http.StatusOK, `{"got":`)
		err := PostJSON(context.Background(), mock, "http://model", struct{}{}, &echoReply{})
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrStatus)
	})
}

func TestPostJSON_StandardClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.JSONEq(t, `{"a":1}`, string(body))
		WriteJSONOK(w, echoReply{Got: "ok"})
	}))
	defer srv.Close()

	var out echoReply
	require.NoError(t, PostJSON(context.Background(), NewStandardClient(srv.Client()), srv.URL, map[string]int{"a": 1}, &out))
	assert.Equal(t, "ok", out.Got)
}

func TestPostJSON_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSONOK(w, echoReply{})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := PostJSON(ctx, NewStandardClient(srv.Client()), srv.URL, struct{}{}, &echoReply{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockHTTPClient_Queue(t *testing.T) {
	t.Parallel()

	mock := NewMockHTTPClient().
		AddResponse(http.StatusCreated, "first").
		AddResponse(http.StatusNotFound, "second")

	for _, want := range []struct {
		code int
		body string
	}{{http.StatusCreated, "first"}, {http.StatusNotFound, "second"}, {http.StatusOK, ""}} {
		req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
		resp, err := mock.Do(req)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		assert.Equal(t, want.code, resp.StatusCode)
		assert.Equal(t, want.body, string(body))
	}
	assert.Equal(t, 3, mock.RequestCount())
	assert.Nil(t, mock.Body(7))
}

func TestMockHTTPClient_DoFunc(t *testing.T) {
	t.Parallel()

	mock := NewMockHTTPClient()
	mock.DoFunc = func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("custom")
	}
	_, err := mock.Do(httptest.NewRequest(http.MethodGet, "http://example.com", nil))
	assert.EqualError(t, err, "custom")
}
