package services

import (
	"context"
	"fmt"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/sirupsen/logrus"
)

// PresenceService persists the online/offline half of presence. The live
// connection map itself lives in the realtime package.
type PresenceService struct {
	users UserStore
}

// NewPresenceService creates a new PresenceService.
func NewPresenceService(users UserStore) *PresenceService {
	return &PresenceService{users: users}
}

// GoOnline records connID as the user's binding and flips them online.
func (s *PresenceService) GoOnline(ctx context.Context, userID, connID string) (*models.PublicUser, error) {
	id, err := parseID(userID, "user id")
	if err != nil {
		return nil, err
	}

	user, err := s.users.SetOnline(ctx, id, connID)
	if err != nil {
		return nil, storeErr("go online", err)
	}

	public := user.Public()
	return &public, nil
}

// GoOffline flips the user offline if their persisted binding is still connID
// (or empty). The bool is false when a newer connection owns the binding.
func (s *PresenceService) GoOffline(ctx context.Context, userID, connID string) (*models.PublicUser, bool, error) {
	id, err := parseID(userID, "user id")
	if err != nil {
		return nil, false, err
	}

	user, changed, err := s.users.SetOfflineIfBound(ctx, id, connID)
	if err != nil {
		return nil, false, storeErr("go offline", err)
	}
	if !changed {
		return nil, false, nil
	}

	public := user.Public()
	return &public, true, nil
}

// Sweep flips every online user for whom isLive reports false to offline and
// returns the users it changed.
func (s *PresenceService) Sweep(ctx context.Context, isLive func(userID string) bool) ([]models.PublicUser, error) {
	online, err := s.users.FindOnline(ctx)
	if err != nil {
		return nil, storeErr("find online users", err)
	}

	var changed []models.PublicUser
	for _, u := range online {
		if isLive(u.ID.Hex()) {
			continue
		}
		user, ok, err := s.users.SetOfflineIfBound(ctx, u.ID, u.ConnectionID)
		if err != nil {
			logrus.WithError(err).WithField("userID", u.ID.Hex()).Warn("Failed to sweep stale presence")
			continue
		}
		if ok {
			changed = append(changed, user.Public())
		}
	}

	if len(changed) > 0 {
		logrus.WithField("count", len(changed)).Info("Swept stale online users")
	}
	return changed, nil
}

// ResetAll marks every online user offline. Run at startup, when no
// connection from a previous process can still be alive.
func (s *PresenceService) ResetAll(ctx context.Context) ([]models.PublicUser, error) {
	changed, err := s.Sweep(ctx, func(string) bool { return false })
	if err != nil {
		return nil, fmt.Errorf("reset presence: %w", err)
	}
	return changed, nil
}
