package realtime

import (
	"context"
	"fmt"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/services"
	"github.com/sirupsen/logrus"
)

func (h *Hub) registerUser(ctx context.Context, conn Conn, c *RegisterUser) {
	if c.UserID != conn.AuthUserID() {
		h.reject(conn, EventRegisterUser, fmt.Errorf("register as %s: %w", c.UserID, services.ErrUnauthorized))
		return
	}
	if !h.bind(conn, c.UserID) {
		return
	}

	// a reconnect inside the grace window keeps the user online without a flicker
	cancelled := h.grace.Cancel(c.UserID)
	prev := h.registry.Bind(c.UserID, conn)

	user, err := h.presence.GoOnline(ctx, c.UserID, conn.ID())
	if err != nil {
		if h.registry.UnbindIf(c.UserID, conn.ID()) && prev != nil && prev.ID() != conn.ID() {
			h.restore(c.UserID, prev)
		}
		h.reject(conn, EventRegisterUser, err)
		return
	}

	fields := logrus.Fields{
		"userID": c.UserID,
		"connID": conn.ID(),
	}
	if prev != nil && prev.ID() != conn.ID() {
		fields["displaced"] = prev.ID()
	}
	if cancelled {
		fields["resumed"] = true
	}
	logrus.WithFields(fields).Info("User registered on realtime channel")

	h.metrics.transition(models.StatusOnline)
	h.Broadcast(StatusEvent(*user))
}

// restore puts back the binding a failed registration displaced. The store
// still names prev, so a prev that already went away gets its grace timer
// back.
func (h *Hub) restore(userID string, prev Conn) {
	if !h.registry.BindIfAbsent(userID, prev) {
		return
	}
	prevID := prev.ID()
	if !h.connected(prevID) {
		h.grace.Arm(userID, h.opts.GracePeriod, func() { h.expire(userID, prevID) })
	}
	logrus.WithFields(logrus.Fields{
		"userID": userID,
		"connID": prevID,
	}).Warn("Registration failed, previous connection restored")
}

// expire runs when a grace timer fires for a connection that went away.
func (h *Hub) expire(userID, connID string) {
	if cur, ok := h.registry.Lookup(userID); ok && cur.ID() != connID {
		return
	}
	h.registry.UnbindIf(userID, connID)

	ctx, cancel := h.storeCtx()
	defer cancel()

	user, changed, err := h.presence.GoOffline(ctx, userID, connID)
	if err != nil {
		logrus.WithError(err).WithField("userID", userID).Error("Failed to mark user offline")
		return
	}
	if !changed {
		logrus.WithField("userID", userID).Debug("Offline skipped, user bound elsewhere")
		return
	}

	logrus.WithFields(logrus.Fields{
		"userID": userID,
		"connID": connID,
	}).Info("User went offline")

	h.metrics.transition(models.StatusOffline)
	h.Broadcast(StatusEvent(*user))
}

// isLive reports whether userID has a bound connection or may still get one
// back inside its grace window. A binding whose connection is already gone
// counts: it is either about to get its grace timer or is owned by one.
func (h *Hub) isLive(userID string) bool {
	if h.grace.Pending(userID) {
		return true
	}
	_, ok := h.registry.Lookup(userID)
	return ok
}

// SweepStale takes offline every user the store believes is online but who
// has no live connection and no pending grace timer.
func (h *Hub) SweepStale(ctx context.Context) (int, error) {
	changed, err := h.presence.Sweep(ctx, h.isLive)
	if err != nil {
		return 0, err
	}
	for _, u := range changed {
		h.metrics.transition(models.StatusOffline)
		h.Broadcast(StatusEvent(u))
	}
	return len(changed), nil
}
