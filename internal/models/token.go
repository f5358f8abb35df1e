package models

// TokenKind distinguishes which transport a token authorizes.
type TokenKind string

const (
	TokenMedia     TokenKind = "media"
	TokenMessaging TokenKind = "messaging"
)

// Token is a single-use credential authorizing one transport connect to
// one room. Stored in the token store; consumed on first use.
type Token struct {
	ID        string    `json:"id"` // ULID
	Kind      TokenKind `json:"kind"`
	UserID    string    `json:"user_id"`
	RoomID    string    `json:"room_id"`
	ExpiresAt int64     `json:"exp"` // Unix ms
}
