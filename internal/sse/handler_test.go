package sse

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticAuth(userID string) Authenticator {
	return func(*http.Request) (string, error) {
		if userID == "" {
			return "", errors.New("no session")
		}
		return userID, nil
	}
}

// readEvent returns the next "event:" name and its data line.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestHandler_Unauthorized(t *testing.T) {
	h := NewHandler(NewManager(nil), staticAuth(""), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := NewHandler(NewManager(nil), staticAuth("uA"), nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/events", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_StreamsUserEvents(t *testing.T) {
	m := startManager(t)
	server := httptest.NewServer(NewHandler(m, staticAuth("uA"), nil))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	name, data := readEvent(t, reader)
	assert.Equal(t, "connected", name)
	assert.Contains(t, data, "client_id")

	m.FavoriteChanged("uB", 1, true)
	m.FavoriteChanged("uA", 603, true)

	name, data = readEvent(t, reader)
	assert.Equal(t, string(EventFavoritesChanged), name)
	assert.Contains(t, data, `"movie_id":603`)
}
