package alert

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSendSignsPayload(t *testing.T) {
	var gotBody []byte
	var gotSig, gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Signature-256")
		gotEvent = r.Header.Get("X-Forge-Event")
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "topsecret")
	n := &Notification{Title: "OpenClaw ships 1.0", URL: "https://example.com/a", Total: 88}
	require.NoError(t, wh.Send(context.Background(), n))

	var decoded Notification
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, n.Title, decoded.Title)
	assert.Equal(t, n.Total, decoded.Total)
	assert.Equal(t, "story.scored", gotEvent)

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotSig)
}

func TestWebhookSendUnsignedWithoutSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Signature-256")
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "")
	require.NoError(t, wh.Send(context.Background(), &Notification{Title: "x"}))
	assert.Empty(t, gotSig)
}

func TestWebhookSendRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "")
	err := wh.Send(context.Background(), &Notification{Title: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
