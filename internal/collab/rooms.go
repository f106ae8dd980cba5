package collab

// directory tracks which sessions are viewing which charts. It keeps a
// reverse index from session to rooms so disconnect cleanup does not scan
// every room. Not safe for concurrent use; the hub goroutine owns it.
type directory struct {
	rooms    map[string]map[SessionID]struct{}
	sessions map[SessionID]map[string]struct{}
}

func newDirectory() *directory {
	return &directory{
		rooms:    make(map[string]map[SessionID]struct{}),
		sessions: make(map[SessionID]map[string]struct{}),
	}
}

// join adds the session to the chart's room, creating the room if absent.
// Joining a room the session already belongs to is a no-op. Returns whether
// the membership changed and the resulting member count.
func (d *directory) join(id SessionID, chartID string) (added bool, size int) {
	room, ok := d.rooms[chartID]
	if !ok {
		room = make(map[SessionID]struct{})
		d.rooms[chartID] = room
	}
	if _, exists := room[id]; exists {
		return false, len(room)
	}
	room[id] = struct{}{}

	byID, ok := d.sessions[id]
	if !ok {
		byID = make(map[string]struct{})
		d.sessions[id] = byID
	}
	byID[chartID] = struct{}{}

	return true, len(room)
}

// leave removes the session from the chart's room. Empty rooms are deleted.
// Returns whether the session was a member.
func (d *directory) leave(id SessionID, chartID string) bool {
	room, ok := d.rooms[chartID]
	if !ok {
		return false
	}
	if _, exists := room[id]; !exists {
		return false
	}
	delete(room, id)
	if len(room) == 0 {
		delete(d.rooms, chartID)
	}

	if byID, ok := d.sessions[id]; ok {
		delete(byID, chartID)
		if len(byID) == 0 {
			delete(d.sessions, id)
		}
	}
	return true
}

// leaveAll removes the session from every room it is a member of and
// returns the rooms that were left.
func (d *directory) leaveAll(id SessionID) []string {
	byID, ok := d.sessions[id]
	if !ok {
		return nil
	}
	left := make([]string, 0, len(byID))
	for chartID := range byID {
		left = append(left, chartID)
		room := d.rooms[chartID]
		delete(room, id)
		if len(room) == 0 {
			delete(d.rooms, chartID)
		}
	}
	delete(d.sessions, id)
	return left
}

// members returns a snapshot of the room's member set. An unknown chart
// yields an empty slice.
func (d *directory) members(chartID string) []SessionID {
	room := d.rooms[chartID]
	out := make([]SessionID, 0, len(room))
	for id := range room {
		out = append(out, id)
	}
	return out
}

func (d *directory) isMember(id SessionID, chartID string) bool {
	_, ok := d.rooms[chartID][id]
	return ok
}

func (d *directory) memberCount(chartID string) int {
	return len(d.rooms[chartID])
}

func (d *directory) roomCount() int {
	return len(d.rooms)
}

// roomsOf returns the rooms the session currently belongs to.
func (d *directory) roomsOf(id SessionID) []string {
	byID := d.sessions[id]
	out := make([]string, 0, len(byID))
	for chartID := range byID {
		out = append(out, chartID)
	}
	return out
}
