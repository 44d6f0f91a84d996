/*
Package gateway implements the REST client for the Questify application server.

This file defines the wire types consumed from the gateway. They are the only
place the server's JSON shapes appear; everything past this package works with
these decoded structs.
*/
package gateway

import "time"

// Profile is the authenticated user's identity as reported by the gateway.
type Profile struct {
	ID                  int64  `json:"id"`
	AdventurerName      string `json:"adventurer_name"`
	Level               int    `json:"level"`
	XP                  int    `json:"xp"`
	XPForNextLevel      int    `json:"xp_for_next_level"`
	LastInteractionMood string `json:"last_interaction_mood"`
}

// Quest is a unit of trackable work. The client holds cached copies only;
// authoritative fields change exclusively server-side.
type Quest struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	XPValue     int        `json:"xp_value"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// tokenResponse is the body returned by POST /token.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}
