package realtime

import "sync"

// Rooms tracks which connections joined which chat room.
type Rooms struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Conn
	byConn map[string]map[string]struct{}
}

// NewRooms returns an empty room table.
func NewRooms() *Rooms {
	return &Rooms{
		rooms:  make(map[string]map[string]Conn),
		byConn: make(map[string]map[string]struct{}),
	}
}

// Join adds conn to room. Joining twice is a no-op.
func (r *Rooms) Join(room string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]Conn)
		r.rooms[room] = members
	}
	members[conn.ID()] = conn

	joined, ok := r.byConn[conn.ID()]
	if !ok {
		joined = make(map[string]struct{})
		r.byConn[conn.ID()] = joined
	}
	joined[room] = struct{}{}
}

// Leave removes connID from room.
func (r *Rooms) Leave(room, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leave(room, connID)
}

// LeaveAll removes the connection from every room it joined.
func (r *Rooms) LeaveAll(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.byConn[connID] {
		r.leave(room, connID)
	}
}

func (r *Rooms) leave(room, connID string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if joined, ok := r.byConn[connID]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(r.byConn, connID)
		}
	}
}

// Publish sends ev to every member of room and returns how many accepted it.
func (r *Rooms) Publish(room string, ev Event) int {
	r.mu.RLock()
	members := make([]Conn, 0, len(r.rooms[room]))
	for _, c := range r.rooms[room] {
		members = append(members, c)
	}
	r.mu.RUnlock()

	sent := 0
	for _, c := range members {
		if c.Send(ev) {
			sent++
		}
	}
	return sent
}

// Members returns the ids of the connections in room.
func (r *Rooms) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.rooms[room]))
	for id := range r.rooms[room] {
		ids = append(ids, id)
	}
	return ids
}
