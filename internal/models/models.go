package models

import (
	"encoding/json"
	"time"
)

// WSFrame is the envelope for every message in either direction.
type WSFrame struct {
	Type string      `json:"type"` // "create-space","join-space","sync-url",... and broadcast event names
	Data interface{} `json:"data,omitempty"`
}

// Participant is one user's presence inside a space, independent of the
// underlying connection.
type Participant struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	IsHost bool   `json:"isHost"`
}

// Position is a 2D offset (scroll or cursor coordinates).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Selection is a participant's text selection. Range is opaque client data
// and is carried through untouched.
type Selection struct {
	Text  string          `json:"text"`
	Range json.RawMessage `json:"range,omitempty"`
}

// SpaceState holds the shared browsing context mirrored to every participant.
// Cursors and selections are keyed by userId and only contain entries for
// participants that have sent an update.
type SpaceState struct {
	CurrentURL     string               `json:"currentUrl"`
	ScrollPosition Position             `json:"scrollPosition"`
	Cursors        map[string]Position  `json:"cursors"`
	Selections     map[string]Selection `json:"selections"`
}

// SpaceInfo is the read-only projection of a space returned by
// get-space-info and snapshot lookups.
type SpaceInfo struct {
	ID           string        `json:"id"`
	Participants []Participant `json:"participants"`
	State        SpaceState    `json:"state"`
	CreatedAt    time.Time     `json:"createdAt"`
}

/*** Inbound request payloads ***/

type CreateSpaceRequest struct {
	UserName string `json:"userName"`
}

type JoinSpaceRequest struct {
	SpaceID  string `json:"spaceId"`
	UserName string `json:"userName"`
}

type SpaceInfoRequest struct {
	SpaceID string `json:"spaceId"`
}

type URLSync struct {
	URL string `json:"url"`
}

type ScrollSync struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CursorSync struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SelectionSync struct {
	Text  string          `json:"text"`
	Range json.RawMessage `json:"range,omitempty"`
}

type ClickSync struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Element string  `json:"element"`
}

/*** Reply payloads (sent back to the requesting connection only) ***/

type CreateSpaceResponse struct {
	Success      bool          `json:"success"`
	SpaceID      string        `json:"spaceId"`
	UserID       string        `json:"userId"`
	InviteLink   string        `json:"inviteLink"`
	Participants []Participant `json:"participants"`
}

type JoinSpaceResponse struct {
	Success      bool          `json:"success"`
	UserID       string        `json:"userId,omitempty"`
	SpaceID      string        `json:"spaceId,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	State        *SpaceState   `json:"state,omitempty"`
	Error        string        `json:"error,omitempty"`
}

type SpaceInfoResponse struct {
	Success bool       `json:"success"`
	Space   *SpaceInfo `json:"space,omitempty"`
	Error   string     `json:"error,omitempty"`
}

/*** Broadcast payloads (sent to every other member of the space) ***/

type UserJoined struct {
	User Participant `json:"user"`
}

type UserLeft struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type SpaceClosed struct {
	Reason string `json:"reason"`
}

type URLChanged struct {
	URL      string `json:"url"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type ScrollChanged struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	UserID string  `json:"userId"`
}

type CursorMoved struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type SelectionChanged struct {
	UserID   string          `json:"userId"`
	UserName string          `json:"userName"`
	Color    string          `json:"color"`
	Text     string          `json:"text"`
	Range    json.RawMessage `json:"range,omitempty"`
}

type ClickOccurred struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Color    string  `json:"color"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Element  string  `json:"element"`
}

/*** HTTP side channel ***/

type HealthResponse struct {
	Status       string `json:"status"`
	ActiveSpaces int    `json:"activeSpaces"`
	Timestamp    string `json:"timestamp"`
}

type SpaceSummary struct {
	ID               string    `json:"id"`
	ParticipantCount int       `json:"participantCount"`
	Host             string    `json:"host"`
	CreatedAt        time.Time `json:"createdAt"`
}

type SpacesResponse struct {
	Spaces []SpaceSummary `json:"spaces"`
}

// SpaceEvent is published to Redis when a space's lifecycle changes, for
// external observers. Fire-and-forget; nothing in the coordinator depends on
// delivery.
type SpaceEvent struct {
	Type      string    `json:"type"` // "space-created","participant-joined","participant-left","space-closed"
	SpaceID   string    `json:"spaceId"`
	UserID    string    `json:"userId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
