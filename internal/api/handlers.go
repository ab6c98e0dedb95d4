package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"spaces/internal/models"
	"spaces/internal/space"
	"spaces/internal/utils"
)

type Handlers struct {
	log      *utils.Logger
	registry *space.Registry
	upgrader websocket.Upgrader
}

func NewHandlers(log *utils.Logger) *Handlers {
	return NewHandlersWithDeps(log, space.NewRegistry(log, nil))
}

// NewHandlersWithDeps wires an externally owned registry (used in tests and
// by cmd/server, which owns the registry lifecycle).
func NewHandlersWithDeps(log *utils.Logger, registry *space.Registry) *Handlers {
	return &Handlers{
		log:      log,
		registry: registry,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, models.HealthResponse{
		Status:       "ok",
		ActiveSpaces: h.registry.Count(),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handlers) ListSpaces(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, models.SpacesResponse{Spaces: h.registry.List()})
}

// SpaceWS is the coordinator's single WebSocket endpoint. Frames are
// {type,data} objects; request frames get a reply frame of the same type on
// this connection, broadcast frames fan out through the space. A dropped
// connection is handled exactly like an explicit leave-space.
func (h *Handlers) SpaceWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := space.NewClient(conn)
	defer h.registry.Leave(client)

	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		h.handleFrame(client, frame)
	}
}

func (h *Handlers) handleFrame(client *space.Client, frame models.WSFrame) {
	switch frame.Type {
	case "create-space":
		var req models.CreateSpaceRequest
		if err := decode(frame.Data, &req); err != nil {
			client.Send(errFrame("invalid_payload"))
			return
		}
		client.Send(models.WSFrame{Type: "create-space", Data: h.registry.CreateSpace(client, req.UserName)})

	case "join-space":
		var req models.JoinSpaceRequest
		if err := decode(frame.Data, &req); err != nil {
			client.Send(models.WSFrame{Type: "join-space", Data: models.JoinSpaceResponse{
				Success: false, Error: "invalid payload",
			}})
			return
		}
		client.Send(models.WSFrame{Type: "join-space", Data: h.registry.JoinSpace(client, req.SpaceID, req.UserName)})

	case "leave-space":
		h.registry.Leave(client)

	case "sync-url":
		var req models.URLSync
		if err := decode(frame.Data, &req); err != nil {
			return
		}
		h.registry.SyncURL(client, req.URL)

	case "sync-scroll":
		var req models.ScrollSync
		if err := decode(frame.Data, &req); err != nil {
			return
		}
		h.registry.SyncScroll(client, models.Position{X: req.X, Y: req.Y})

	case "sync-cursor":
		var req models.CursorSync
		if err := decode(frame.Data, &req); err != nil {
			return
		}
		h.registry.SyncCursor(client, models.Position{X: req.X, Y: req.Y})

	case "sync-selection":
		var req models.SelectionSync
		if err := decode(frame.Data, &req); err != nil {
			return
		}
		h.registry.SyncSelection(client, models.Selection{Text: req.Text, Range: req.Range})

	case "sync-click":
		var req models.ClickSync
		if err := decode(frame.Data, &req); err != nil {
			return
		}
		h.registry.SyncClick(client, req)

	case "get-space-info":
		var req models.SpaceInfoRequest
		if err := decode(frame.Data, &req); err != nil {
			client.Send(models.WSFrame{Type: "get-space-info", Data: models.SpaceInfoResponse{
				Success: false, Error: "invalid payload",
			}})
			return
		}
		info, ok := h.registry.Snapshot(req.SpaceID)
		if !ok {
			client.Send(models.WSFrame{Type: "get-space-info", Data: models.SpaceInfoResponse{
				Success: false, Error: space.ErrSpaceNotFound.Error(),
			}})
			return
		}
		client.Send(models.WSFrame{Type: "get-space-info", Data: models.SpaceInfoResponse{
			Success: true, Space: &info,
		}})

	default:
		client.Send(errFrame("unknown_type"))
	}
}

// decode round-trips the loosely typed frame data into a payload struct.
func decode(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func errFrame(msg string) models.WSFrame { return models.WSFrame{Type: "error", Data: msg} }

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
