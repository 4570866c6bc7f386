package provision

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPIProvisioner(url string) *apiProvisioner {
	return &apiProvisioner{
		baseURL: url,
		token:   "secret-token",
		client:  &http.Client{Timeout: time.Second},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestAPIProvisioner_ProvisionRoom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var meta RoomMetadata
		require.NoError(t, json.NewDecoder(r.Body).Decode(&meta))
		assert.Equal(t, "Alice", meta.Name)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"roomId": "abc123"})
	}))
	defer server.Close()

	roomID, err := newTestAPIProvisioner(server.URL).ProvisionRoom(context.Background(), RoomMetadata{
		Name:      "Alice",
		Timestamp: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", roomID)
}

func TestAPIProvisioner_ProvisionRoomRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestAPIProvisioner(server.URL).ProvisionRoom(context.Background(), RoomMetadata{Name: "Alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoomProvisionFailed)
}

func TestAPIProvisioner_ProvisionRoomUnreachable(t *testing.T) {
	_, err := newTestAPIProvisioner("http://127.0.0.1:1").ProvisionRoom(context.Background(), RoomMetadata{Name: "Alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoomProvisionFailed)
}

func TestAPIProvisioner_ValidateRoom(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/rooms/known":
			w.WriteHeader(http.StatusOK)
		case "/rooms/unknown":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	p := newTestAPIProvisioner(server.URL)

	exists, err := p.ValidateRoom(context.Background(), "known")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = p.ValidateRoom(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = p.ValidateRoom(context.Background(), "broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoomValidationFailed)
}

func TestAPIProvisioner_MintMediaToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rooms/r1/tokens", r.URL.Path)

		var req mintTokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice@example.com", req.Identity)

		json.NewEncoder(w).Encode(map[string]string{"token": "media-jwt"})
	}))
	defer server.Close()

	token, err := newTestAPIProvisioner(server.URL).MintMediaToken(context.Background(), "r1", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "media-jwt", token)
}

func TestLocalProvisioner(t *testing.T) {
	p := NewLocalProvisioner()

	roomID, err := p.ProvisionRoom(context.Background(), RoomMetadata{Name: "Alice"})
	require.NoError(t, err)
	assert.Len(t, roomID, roomIDLength)
	for _, c := range roomID {
		assert.True(t, strings.ContainsRune(roomIDAlphabet, c), "unexpected character %q", c)
	}

	exists, err := p.ValidateRoom(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = p.MintMediaToken(context.Background(), "r1", "alice")
	assert.ErrorIs(t, err, ErrNoMediaBackend)
}

func TestShortRoomID_Uniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := ShortRoomID(roomIDLength)
		require.NoError(t, err)
		seen[id] = struct{}{}
	}
	assert.Greater(t, len(seen), 95, "short ids should rarely collide")
}
