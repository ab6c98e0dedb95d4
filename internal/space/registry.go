package space

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/google/uuid"

	"spaces/internal/events"
	"spaces/internal/metrics"
	"spaces/internal/models"
	"spaces/internal/utils"
)

// InviteLinkPrefix is prepended to a space id to form the shareable link.
const InviteLinkPrefix = "probe://space/"

const spaceIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
const spaceIDLength = 8

// Participant colors are cosmetic; collisions are allowed.
var colorPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
	"#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
	"#FF8C94", "#74B9FF", "#A29BFE", "#FD79A8",
}

// Binding associates a live connection with its space and participant
// identity for the lifetime of the connection.
type Binding struct {
	SpaceID       string
	ParticipantID string
}

// Registry owns every live Space and the session-binding table. No other
// component keeps a Space beyond the scope of one event.
type Registry struct {
	log *utils.Logger
	pub *events.Publisher

	mu       sync.RWMutex
	spaces   map[string]*Space
	bindings map[*Client]Binding
}

func NewRegistry(log *utils.Logger, pub *events.Publisher) *Registry {
	return &Registry{
		log:      log,
		pub:      pub,
		spaces:   make(map[string]*Space),
		bindings: make(map[*Client]Binding),
	}
}

// CreateSpace allocates a new space with the creator as host and binds the
// creating connection to it.
func (r *Registry) CreateSpace(c *Client, userName string) models.CreateSpaceResponse {
	if userName == "" {
		userName = "Host"
	}
	host := models.Participant{
		UserID: uuid.NewString(),
		Name:   userName,
		Color:  randomColor(),
		IsHost: true,
	}

	r.mu.Lock()
	id := newSpaceID()
	for _, taken := r.spaces[id]; taken; _, taken = r.spaces[id] {
		id = newSpaceID()
	}
	s := newSpace(id, host, c)
	r.spaces[id] = s
	r.bindings[c] = Binding{SpaceID: id, ParticipantID: host.UserID}
	active := len(r.spaces)
	r.mu.Unlock()

	metrics.SetActiveSpaces(active)
	metrics.AddParticipants(1)
	r.pub.Publish(models.SpaceEvent{Type: "space-created", SpaceID: id, UserID: host.UserID, UserName: host.Name})
	r.log.Info("space created", "spaceId", id, "host", userName)

	return models.CreateSpaceResponse{
		Success:      true,
		SpaceID:      id,
		UserID:       host.UserID,
		InviteLink:   InviteLinkPrefix + id,
		Participants: []models.Participant{host},
	}
}

// JoinSpace adds the connection to an existing space. The reply carries the
// full roster and shared state so the joiner renders the current picture
// before incremental updates arrive; existing members get user-joined first.
func (r *Registry) JoinSpace(c *Client, spaceID, userName string) models.JoinSpaceResponse {
	if userName == "" {
		userName = "Guest"
	}

	r.mu.RLock()
	s, ok := r.spaces[spaceID]
	r.mu.RUnlock()
	if !ok {
		return models.JoinSpaceResponse{Success: false, Error: ErrSpaceNotFound.Error()}
	}

	p := models.Participant{
		UserID: uuid.NewString(),
		Name:   userName,
		Color:  randomColor(),
		IsHost: false,
	}
	roster, state, joined := s.Join(c, p)
	if !joined {
		// Lost the race against a teardown.
		return models.JoinSpaceResponse{Success: false, Error: ErrSpaceNotFound.Error()}
	}

	r.mu.Lock()
	r.bindings[c] = Binding{SpaceID: spaceID, ParticipantID: p.UserID}
	r.mu.Unlock()

	metrics.AddParticipants(1)
	r.pub.Publish(models.SpaceEvent{Type: "participant-joined", SpaceID: spaceID, UserID: p.UserID, UserName: p.Name})
	r.log.Info("participant joined", "spaceId", spaceID, "user", userName)

	return models.JoinSpaceResponse{
		Success:      true,
		UserID:       p.UserID,
		SpaceID:      spaceID,
		Participants: roster,
		State:        &state,
	}
}

// Leave detaches a connection from its space, removing its roster entry and
// ephemeral state and closing the space if the host departed or nobody is
// left. A connection with no binding is a benign no-op; explicit leave-space
// and a dropped connection take the same path.
func (r *Registry) Leave(c *Client) {
	r.mu.Lock()
	b, bound := r.bindings[c]
	if !bound {
		r.mu.Unlock()
		return
	}
	delete(r.bindings, c)
	s := r.spaces[b.SpaceID]
	r.mu.Unlock()
	if s == nil {
		return
	}

	p, closed, ok := s.Remove(c)
	if !ok {
		return
	}
	metrics.AddParticipants(-1)
	r.pub.Publish(models.SpaceEvent{Type: "participant-left", SpaceID: s.ID, UserID: p.UserID, UserName: p.Name})
	r.log.Info("participant left", "spaceId", s.ID, "user", p.Name)

	if closed {
		reason := ReasonLastParticipant
		if p.IsHost {
			reason = ReasonHostLeft
		}
		r.mu.Lock()
		delete(r.spaces, s.ID)
		// Release the bindings of members stranded by the close so their
		// connections read as unbound immediately, not only after they drop.
		for client, binding := range r.bindings {
			if binding.SpaceID == s.ID {
				delete(r.bindings, client)
			}
		}
		active := len(r.spaces)
		r.mu.Unlock()

		// Members stranded in the closed space no longer count as connected
		// participants; their bindings resolve to nothing from here on.
		metrics.AddParticipants(-s.ParticipantCount())
		metrics.SetActiveSpaces(active)
		r.pub.Publish(models.SpaceEvent{Type: "space-closed", SpaceID: s.ID, Reason: reason})
		r.log.Info("space closed", "spaceId", s.ID, "reason", reason)
	}
}

// SyncURL applies a URL change for the sender's space. Unbound connections
// are ignored; they usually mean a race with a space that just closed.
func (r *Registry) SyncURL(c *Client, url string) {
	if s := r.boundSpace(c); s != nil && s.SyncURL(c, url) {
		metrics.CountSyncEvent("url")
	}
}

func (r *Registry) SyncScroll(c *Client, pos models.Position) {
	if s := r.boundSpace(c); s != nil && s.SyncScroll(c, pos) {
		metrics.CountSyncEvent("scroll")
	}
}

func (r *Registry) SyncCursor(c *Client, pos models.Position) {
	if s := r.boundSpace(c); s != nil && s.SyncCursor(c, pos) {
		metrics.CountSyncEvent("cursor")
	}
}

func (r *Registry) SyncSelection(c *Client, sel models.Selection) {
	if s := r.boundSpace(c); s != nil && s.SyncSelection(c, sel) {
		metrics.CountSyncEvent("selection")
	}
}

func (r *Registry) SyncClick(c *Client, click models.ClickSync) {
	if s := r.boundSpace(c); s != nil && s.SyncClick(c, click) {
		metrics.CountSyncEvent("click")
	}
}

// Snapshot returns a read-only projection of a space. It does not require
// the caller to be a member.
func (r *Registry) Snapshot(spaceID string) (models.SpaceInfo, bool) {
	r.mu.RLock()
	s, ok := r.spaces[spaceID]
	r.mu.RUnlock()
	if !ok {
		return models.SpaceInfo{}, false
	}
	return s.Snapshot(), true
}

// List returns summaries of all live spaces, oldest first.
func (r *Registry) List() []models.SpaceSummary {
	r.mu.RLock()
	all := make([]*Space, 0, len(r.spaces))
	for _, s := range r.spaces {
		all = append(all, s)
	}
	r.mu.RUnlock()

	out := make([]models.SpaceSummary, 0, len(all))
	for _, s := range all {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of live spaces.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.spaces)
}

// Bound reports the session binding for a connection, if any.
func (r *Registry) Bound(c *Client) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[c]
	return b, ok
}

func (r *Registry) boundSpace(c *Client) *Space {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[c]
	if !ok {
		return nil
	}
	return r.spaces[b.SpaceID]
}

func newSpaceID() string {
	buf := make([]byte, spaceIDLength)
	for i := range buf {
		buf[i] = spaceIDAlphabet[rand.Intn(len(spaceIDAlphabet))]
	}
	return string(buf)
}

func randomColor() string {
	return colorPalette[rand.Intn(len(colorPalette))]
}
