package wannameet_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryan42/wannameet/clients/go/wannameet"
)

func Test_CreateRoom_decodes_room_and_tokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rooms", r.URL.Path)
		require.Equal(t, "alice", r.URL.Query().Get("userId"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"room":{"id":"r-1","status":"waiting"},"mediaToken":"mt","messagingToken":"gt"}`))
	}))
	defer srv.Close()

	client := wannameet.NewClient(srv.URL)
	resp, err := client.CreateRoom(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "r-1", resp.Room.ID)
	assert.Equal(t, "waiting", resp.Room.Status)
	assert.Equal(t, "mt", resp.MediaToken)
	assert.Equal(t, "gt", resp.MessagingToken)
}

func Test_RequestRoom_decodes_empty_candidate_list(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"rooms":[],"mediaToken":"","messagingToken":""}`))
	}))
	defer srv.Close()

	client := wannameet.NewClient(srv.URL)
	resp, err := client.RequestRoom(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, resp.Rooms)
}

func Test_GetRoom_decodes_status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/rooms/r-1", r.URL.Path)
		w.Write([]byte(`{"room":{"id":"r-1","status":"active"}}`))
	}))
	defer srv.Close()

	client := wannameet.NewClient(srv.URL)
	resp, err := client.GetRoom(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "active", resp.Room.Status)
}

func Test_ReleaseRoom_puts_to_room_path(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		w.Write([]byte(`{"room":{"id":"r-1","status":"closed"}}`))
	}))
	defer srv.Close()

	client := wannameet.NewClient(srv.URL)
	require.NoError(t, client.ReleaseRoom(context.Background(), "r-1"))
	assert.Equal(t, "/rooms/r-1", gotPath)
}

func Test_directory_errors_surface_status_and_message(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"room not found"}`))
	}))
	defer srv.Close()

	client := wannameet.NewClient(srv.URL)
	err := client.ReleaseRoom(context.Background(), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "room not found")
}
