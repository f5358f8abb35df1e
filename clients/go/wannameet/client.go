// Package wannameet provides the client side of the wannameet service:
// a directory HTTP client, transport adapters for the relay channels,
// and the session orchestrator that ties one room, one media handle and
// one messaging handle together.
package wannameet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is the matchmaking directory API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new directory client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// RoomView is the wire shape of a room.
type RoomView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateRoomResponse is the response from creating a room.
type CreateRoomResponse struct {
	Room           RoomView `json:"room"`
	MediaToken     string   `json:"mediaToken"`
	MessagingToken string   `json:"messagingToken"`
}

// RequestRoomResponse is the response from requesting a room. Rooms is
// empty when no waiting room could be claimed.
type RequestRoomResponse struct {
	Rooms          []RoomView `json:"rooms"`
	MediaToken     string     `json:"mediaToken"`
	MessagingToken string     `json:"messagingToken"`
}

// GetRoomResponse is the response from a room status lookup.
type GetRoomResponse struct {
	Room RoomView `json:"room"`
}

// doRequest performs an HTTP request against the directory.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("directory error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// CreateRoom allocates a new waiting room for userID.
func (c *Client) CreateRoom(ctx context.Context, userID string) (*CreateRoomResponse, error) {
	respBody, err := c.doRequest(ctx, "POST", "/rooms?userId="+userID)
	if err != nil {
		return nil, err
	}

	var resp CreateRoomResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestRoom asks the directory for a waiting room to join.
func (c *Client) RequestRoom(ctx context.Context, userID string) (*RequestRoomResponse, error) {
	respBody, err := c.doRequest(ctx, "GET", "/rooms?userId="+userID)
	if err != nil {
		return nil, err
	}

	var resp RequestRoomResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetRoom looks up a room's current status.
func (c *Client) GetRoom(ctx context.Context, roomID string) (*GetRoomResponse, error) {
	respBody, err := c.doRequest(ctx, "GET", "/rooms/"+roomID)
	if err != nil {
		return nil, err
	}

	var resp GetRoomResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReleaseRoom signals departure from a room.
func (c *Client) ReleaseRoom(ctx context.Context, roomID string) error {
	_, err := c.doRequest(ctx, "PUT", "/rooms/"+roomID)
	return err
}
