package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/formwizard/broker"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/form/formtest"
	"github.com/tbxark/formwizard/types"
)

func TestHTTPGatewaySuccess(t *testing.T) {
	var got form.Application
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(body, &got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	app := formtest.Complete()
	out := NewHTTPGateway(srv.URL, time.Second).Submit(context.Background(), app)
	assert.True(t, out.Success)
	assert.Empty(t, out.Error)
	assert.Equal(t, app, got)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.NotEmpty(t, header.Get("Idempotency-Key"))
}

func TestHTTPGatewayRejection(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message field", http.StatusUnprocessableEntity, `{"message":"zip code is not served"}`, "zip code is not served"},
		{"error field", http.StatusBadRequest, `{"error":"duplicate application"}`, "duplicate application"},
		{"no body", http.StatusInternalServerError, "", "submission rejected: 500 Internal Server Error"},
		{"non json", http.StatusBadGateway, "<html>oops</html>", "submission rejected: 502 Bad Gateway"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			out := NewHTTPGateway(srv.URL, time.Second).Submit(context.Background(), formtest.Complete())
			assert.False(t, out.Success)
			assert.Equal(t, tt.want, out.Error)
		})
	}
}

func TestHTTPGatewayUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out := NewHTTPGateway(url, time.Second).Submit(context.Background(), formtest.Complete())
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Error)
}

func TestHTTPGatewayTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out := NewHTTPGateway(srv.URL, time.Second).Submit(ctx, formtest.Complete())
	assert.False(t, out.Success)
	assert.Equal(t, "submission timed out, please try again", out.Error)
}

func TestFunc(t *testing.T) {
	var called bool
	g := Func(func(ctx context.Context, app form.Application) types.SubmissionOutcome {
		called = true
		return types.SubmissionOutcome{Success: true}
	})
	assert.True(t, g.Submit(context.Background(), form.Defaults()).Success)
	assert.True(t, called)
}

func natsConn(t *testing.T) *nats.Conn {
	t.Helper()
	ns, err := broker.StartEmbedded(t.TempDir())
	require.NoError(t, err)
	nc, err := broker.ConnectInProcess(ns)
	require.NoError(t, err)
	t.Cleanup(func() { _ = broker.Shutdown(nc, ns) })
	return nc
}

func TestNATSGateway(t *testing.T) {
	nc := natsConn(t)

	_, err := nc.Subscribe(DefaultSubject, func(m *nats.Msg) {
		var app form.Application
		if err := sonic.Unmarshal(m.Data, &app); err != nil {
			_ = m.Respond([]byte(`{"success":false,"error":"bad payload"}`))
			return
		}
		if app.ZipCode == "00000" {
			_ = m.Respond([]byte(`{"success":false,"message":"zip code is not served"}`))
			return
		}
		if app.ZipCode == "11111" {
			_ = m.Respond([]byte(`{}`))
			return
		}
		_ = m.Respond([]byte(`{"success":true}`))
	})
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	g := NewNATSGateway(nc, "", time.Second)
	app := formtest.Complete()
	assert.True(t, g.Submit(context.Background(), app).Success)

	app.ZipCode = "00000"
	out := g.Submit(context.Background(), app)
	assert.False(t, out.Success)
	assert.Equal(t, "zip code is not served", out.Error)

	app.ZipCode = "11111"
	out = g.Submit(context.Background(), app)
	assert.False(t, out.Success)
	assert.Equal(t, "submission rejected", out.Error)
}

func TestNATSGatewayNoResponder(t *testing.T) {
	nc := natsConn(t)
	out := NewNATSGateway(nc, "intake.nobody", 200*time.Millisecond).Submit(context.Background(), formtest.Complete())
	assert.False(t, out.Success)
	assert.Contains(t, out.Error, "could not reach the application service")
}
