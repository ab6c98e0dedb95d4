package space

import (
	"sync"
	"time"

	"spaces/internal/models"
)

// Close reasons broadcast with the space-closed event.
const (
	ReasonHostLeft        = "Host left the space"
	ReasonLastParticipant = "Last participant left"
)

// Space is one collaborative session: its roster, shared browsing state and
// host relationship. Every mutate-then-broadcast sequence runs under the
// space's mutex so members observe all events in a single order, which is the
// serialization the protocol requires. The registry is the only owner of
// Space instances.
type Space struct {
	ID string

	mu        sync.Mutex
	closed    bool
	host      models.Participant
	members   map[*Client]models.Participant
	order     []*Client // join order; rosters are always reported in this order
	state     models.SpaceState
	createdAt time.Time
}

func newSpace(id string, host models.Participant, creator *Client) *Space {
	s := &Space{
		ID:      id,
		host:    host,
		members: map[*Client]models.Participant{creator: host},
		order:   []*Client{creator},
		state: models.SpaceState{
			Cursors:    make(map[string]models.Position),
			Selections: make(map[string]models.Selection),
		},
		createdAt: time.Now(),
	}
	return s
}

// Join adds a participant, notifies the existing members and returns the
// roster and state the joiner should render. Fails once the space has been
// closed, so a join racing a teardown resolves to not-found.
func (s *Space) Join(c *Client, p models.Participant) ([]models.Participant, models.SpaceState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, models.SpaceState{}, false
	}
	s.members[c] = p
	s.order = append(s.order, c)
	s.broadcast(c, models.WSFrame{Type: "user-joined", Data: models.UserJoined{User: p}})
	return s.roster(), s.stateCopy(), true
}

// Remove detaches a connection: drops its roster entry and any cursor or
// selection it owned, notifies the remaining members, then evaluates the
// termination rule. It returns the departed participant and whether the
// space closed (host left, or roster emptied). The left/closed ordering
// matters: clients distinguish a departure from a teardown by it.
func (s *Space) Remove(c *Client) (p models.Participant, closed bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Members stranded by an earlier close still have roster entries; their
	// detach must not run the close branch a second time.
	if s.closed {
		return models.Participant{}, false, false
	}
	p, ok = s.members[c]
	if !ok {
		return models.Participant{}, false, false
	}
	delete(s.members, c)
	for i, m := range s.order {
		if m == c {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	delete(s.state.Cursors, p.UserID)
	delete(s.state.Selections, p.UserID)

	s.broadcast(c, models.WSFrame{Type: "user-left", Data: models.UserLeft{UserID: p.UserID, UserName: p.Name}})

	if p.IsHost || len(s.members) == 0 {
		reason := ReasonLastParticipant
		if p.IsHost {
			reason = ReasonHostLeft
		}
		s.broadcast(c, models.WSFrame{Type: "space-closed", Data: models.SpaceClosed{Reason: reason}})
		s.closed = true
		return p, true, true
	}
	return p, false, true
}

// SyncURL overwrites the shared URL and fans the change out to everyone but
// the sender.
func (s *Space) SyncURL(sender *Client, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.members[sender]
	if !ok || s.closed {
		return false
	}
	s.state.CurrentURL = url
	s.broadcast(sender, models.WSFrame{Type: "url-changed", Data: models.URLChanged{
		URL: url, UserID: p.UserID, UserName: p.Name,
	}})
	return true
}

func (s *Space) SyncScroll(sender *Client, pos models.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.members[sender]
	if !ok || s.closed {
		return false
	}
	s.state.ScrollPosition = pos
	s.broadcast(sender, models.WSFrame{Type: "scroll-changed", Data: models.ScrollChanged{
		X: pos.X, Y: pos.Y, UserID: p.UserID,
	}})
	return true
}

func (s *Space) SyncCursor(sender *Client, pos models.Position) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.members[sender]
	if !ok || s.closed {
		return false
	}
	s.state.Cursors[p.UserID] = pos
	s.broadcast(sender, models.WSFrame{Type: "cursor-moved", Data: models.CursorMoved{
		UserID: p.UserID, UserName: p.Name, Color: p.Color, X: pos.X, Y: pos.Y,
	}})
	return true
}

func (s *Space) SyncSelection(sender *Client, sel models.Selection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.members[sender]
	if !ok || s.closed {
		return false
	}
	s.state.Selections[p.UserID] = sel
	s.broadcast(sender, models.WSFrame{Type: "selection-changed", Data: models.SelectionChanged{
		UserID: p.UserID, UserName: p.Name, Color: p.Color, Text: sel.Text, Range: sel.Range,
	}})
	return true
}

// SyncClick is stateless: broadcast only, nothing is written to shared state.
func (s *Space) SyncClick(sender *Client, click models.ClickSync) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.members[sender]
	if !ok || s.closed {
		return false
	}
	s.broadcast(sender, models.WSFrame{Type: "click-occurred", Data: models.ClickOccurred{
		UserID: p.UserID, UserName: p.Name, Color: p.Color,
		X: click.X, Y: click.Y, Element: click.Element,
	}})
	return true
}

// Snapshot returns a read-only projection of the space. Maps are copied so
// the caller never aliases live state.
func (s *Space) Snapshot() models.SpaceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SpaceInfo{
		ID:           s.ID,
		Participants: s.roster(),
		State:        s.stateCopy(),
		CreatedAt:    s.createdAt,
	}
}

// Summary returns the listing projection for the /spaces endpoint.
func (s *Space) Summary() models.SpaceSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SpaceSummary{
		ID:               s.ID,
		ParticipantCount: len(s.members),
		Host:             s.host.Name,
		CreatedAt:        s.createdAt,
	}
}

// ParticipantCount returns the current roster size.
func (s *Space) ParticipantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// roster returns the participants in join order. Callers hold s.mu.
func (s *Space) roster() []models.Participant {
	out := make([]models.Participant, 0, len(s.members))
	for _, c := range s.order {
		out = append(out, s.members[c])
	}
	return out
}

// stateCopy deep-copies the shared state. Callers hold s.mu.
func (s *Space) stateCopy() models.SpaceState {
	cursors := make(map[string]models.Position, len(s.state.Cursors))
	for id, pos := range s.state.Cursors {
		cursors[id] = pos
	}
	selections := make(map[string]models.Selection, len(s.state.Selections))
	for id, sel := range s.state.Selections {
		selections[id] = sel
	}
	return models.SpaceState{
		CurrentURL:     s.state.CurrentURL,
		ScrollPosition: s.state.ScrollPosition,
		Cursors:        cursors,
		Selections:     selections,
	}
}

// broadcast sends a frame to every member except the sender. Callers hold
// s.mu; sends never await acknowledgment.
func (s *Space) broadcast(sender *Client, frame models.WSFrame) {
	for _, c := range s.order {
		if c == sender {
			continue
		}
		c.Send(frame)
	}
}
