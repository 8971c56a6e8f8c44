package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/n0ll22/HouseholdRPG/internal/models"
	"github.com/n0ll22/HouseholdRPG/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FriendshipService drives the friend request state machine:
//
//	(none)  --send-->    pending
//	pending --accept-->  accepted
//	pending --refuse-->  deleted
//	pending --block-->   blocked (blocked_by = actor)
//	blocked --refuse-->  deleted (unblock, blocker only)
type FriendshipService struct {
	friendships FriendshipStore
	users       UserStore
}

// NewFriendshipService creates a new FriendshipService.
func NewFriendshipService(friendships FriendshipStore, users UserStore) *FriendshipService {
	return &FriendshipService{
		friendships: friendships,
		users:       users,
	}
}

// SendRequest creates a pending friendship from sender to receiver.
func (s *FriendshipService) SendRequest(ctx context.Context, senderHex, receiverHex string) (*models.FriendshipView, error) {
	senderID, err := parseID(senderHex, "sender id")
	if err != nil {
		return nil, err
	}
	receiverID, err := parseID(receiverHex, "receiver id")
	if err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("cannot send a friend request to yourself: %w", ErrInvalidRequest)
	}

	if _, err := s.users.GetUserByID(ctx, receiverID); err != nil {
		return nil, storeErr("load receiver", err)
	}

	existing, err := s.friendships.FindBetween(ctx, senderID, receiverID)
	switch {
	case err == nil && existing.Status == models.FriendshipBlocked:
		return nil, fmt.Errorf("friendship %s: %w", existing.ID.Hex(), ErrAlreadyBlocked)
	case err == nil:
		return nil, fmt.Errorf("friendship %s: %w", existing.ID.Hex(), ErrAlreadyPending)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeErr("find friendship", err)
	}

	created, err := s.friendships.Create(ctx, &models.Friendship{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     models.FriendshipPending,
	})
	if err != nil {
		// lost a race against a concurrent identical request
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("concurrent request: %w", ErrAlreadyPending)
		}
		return nil, storeErr("create friendship", err)
	}

	if err := s.users.AddFriendship(ctx, created.ID, senderID, receiverID); err != nil {
		return nil, storeErr("link friendship", err)
	}

	logrus.WithFields(logrus.Fields{
		"friendshipID": created.ID.Hex(),
		"sender":       senderHex,
		"receiver":     receiverHex,
	}).Info("Friend request created")

	return s.populate(ctx, created)
}

// Answer applies status to the friendship on behalf of actor and returns the
// populated result. For "refused" the record is gone afterwards and the
// returned view is the last state before deletion with Status set to refused.
func (s *FriendshipService) Answer(ctx context.Context, actorHex, friendshipHex, status string) (*models.FriendshipView, error) {
	actorID, err := parseID(actorHex, "user id")
	if err != nil {
		return nil, err
	}
	id, err := parseID(friendshipHex, "friendship id")
	if err != nil {
		return nil, err
	}

	f, err := s.friendships.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("load friendship", err)
	}
	if !f.Involves(actorID) {
		return nil, fmt.Errorf("user %s is not a party: %w", actorHex, ErrUnauthorized)
	}

	switch status {
	case models.FriendshipAccepted, models.FriendshipBlocked:
		if f.Status != models.FriendshipPending {
			return nil, fmt.Errorf("cannot %s a %s friendship: %w", status, f.Status, ErrInvalidRequest)
		}
		if f.ReceiverID != actorID {
			return nil, fmt.Errorf("only the receiver may answer: %w", ErrUnauthorized)
		}
		var blockedBy *primitive.ObjectID
		if status == models.FriendshipBlocked {
			blockedBy = &actorID
		}
		if err := s.friendships.UpdateStatus(ctx, id, status, blockedBy); err != nil {
			return nil, storeErr("update friendship", err)
		}
		updated, err := s.friendships.GetByID(ctx, id)
		if err != nil {
			return nil, storeErr("reload friendship", err)
		}
		logrus.WithFields(logrus.Fields{"friendshipID": friendshipHex, "status": status}).Info("Friend request answered")
		return s.populate(ctx, updated)

	case models.FriendshipRefused:
		if err := s.checkRemovable(f, actorID); err != nil {
			return nil, err
		}
		view, err := s.populate(ctx, f)
		if err != nil {
			return nil, err
		}
		if err := s.remove(ctx, id); err != nil {
			return nil, err
		}
		view.Status = models.FriendshipRefused
		view.BlockedBy = nil
		logrus.WithField("friendshipID", friendshipHex).Info("Friend request refused")
		return view, nil

	default:
		return nil, fmt.Errorf("unknown answer %q: %w", status, ErrInvalidRequest)
	}
}

// Unsend deletes a friendship the actor is party to. Blocked friendships can
// only be removed by whoever blocked.
func (s *FriendshipService) Unsend(ctx context.Context, actorHex, friendshipHex string) (*models.FriendshipView, error) {
	actorID, err := parseID(actorHex, "user id")
	if err != nil {
		return nil, err
	}
	id, err := parseID(friendshipHex, "friendship id")
	if err != nil {
		return nil, err
	}

	f, err := s.friendships.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("load friendship", err)
	}
	if !f.Involves(actorID) {
		return nil, fmt.Errorf("user %s is not a party: %w", actorHex, ErrUnauthorized)
	}
	if f.Status == models.FriendshipBlocked && (f.BlockedBy == nil || *f.BlockedBy != actorID) {
		return nil, fmt.Errorf("only the blocker may remove a block: %w", ErrUnauthorized)
	}

	view, err := s.populate(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.remove(ctx, id); err != nil {
		return nil, err
	}

	logrus.WithField("friendshipID", friendshipHex).Info("Friend request unsent")
	return view, nil
}

// Get returns one friendship the actor is party to.
func (s *FriendshipService) Get(ctx context.Context, actorHex, friendshipHex string) (*models.FriendshipView, error) {
	actorID, err := parseID(actorHex, "user id")
	if err != nil {
		return nil, err
	}
	id, err := parseID(friendshipHex, "friendship id")
	if err != nil {
		return nil, err
	}

	f, err := s.friendships.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("load friendship", err)
	}
	if !f.Involves(actorID) {
		return nil, fmt.Errorf("user %s is not a party: %w", actorHex, ErrUnauthorized)
	}
	return s.populate(ctx, f)
}

// Between returns the friendship between two users, in either direction.
func (s *FriendshipService) Between(ctx context.Context, userHex, otherHex string) (*models.FriendshipView, error) {
	a, err := parseID(userHex, "user id")
	if err != nil {
		return nil, err
	}
	b, err := parseID(otherHex, "user id")
	if err != nil {
		return nil, err
	}

	f, err := s.friendships.FindBetween(ctx, a, b)
	if err != nil {
		return nil, storeErr("find friendship", err)
	}
	return s.populate(ctx, f)
}

// ListForUser returns the user's friendships, optionally filtered by status.
func (s *FriendshipService) ListForUser(ctx context.Context, userHex, status string) ([]models.FriendshipView, error) {
	userID, err := parseID(userHex, "user id")
	if err != nil {
		return nil, err
	}
	switch status {
	case "", models.FriendshipPending, models.FriendshipAccepted, models.FriendshipBlocked:
	default:
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrInvalidRequest)
	}

	friendships, err := s.friendships.ListForUser(ctx, userID, status)
	if err != nil {
		return nil, storeErr("list friendships", err)
	}
	if len(friendships) == 0 {
		return []models.FriendshipView{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(friendships)*2)
	for _, f := range friendships {
		ids = append(ids, f.SenderID, f.ReceiverID)
	}
	profiles, err := publicUsers(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.FriendshipView, 0, len(friendships))
	for i := range friendships {
		views = append(views, toFriendshipView(&friendships[i], profiles))
	}
	return views, nil
}

func (s *FriendshipService) checkRemovable(f *models.Friendship, actorID primitive.ObjectID) error {
	switch f.Status {
	case models.FriendshipPending:
		if f.ReceiverID != actorID {
			return fmt.Errorf("only the receiver may refuse: %w", ErrUnauthorized)
		}
	case models.FriendshipBlocked:
		if f.BlockedBy == nil || *f.BlockedBy != actorID {
			return fmt.Errorf("only the blocker may unblock: %w", ErrUnauthorized)
		}
	default:
		return fmt.Errorf("cannot refuse a %s friendship: %w", f.Status, ErrInvalidRequest)
	}
	return nil
}

func (s *FriendshipService) remove(ctx context.Context, id primitive.ObjectID) error {
	if err := s.friendships.Delete(ctx, id); err != nil {
		return storeErr("delete friendship", err)
	}
	if err := s.users.PullFriendship(ctx, id); err != nil {
		return storeErr("unlink friendship", err)
	}
	return nil
}

func (s *FriendshipService) populate(ctx context.Context, f *models.Friendship) (*models.FriendshipView, error) {
	profiles, err := publicUsers(ctx, s.users, []primitive.ObjectID{f.SenderID, f.ReceiverID})
	if err != nil {
		return nil, err
	}
	view := toFriendshipView(f, profiles)
	return &view, nil
}

func toFriendshipView(f *models.Friendship, profiles map[primitive.ObjectID]models.PublicUser) models.FriendshipView {
	return models.FriendshipView{
		ID:        f.ID,
		Sender:    profileOrGhost(profiles, f.SenderID),
		Receiver:  profileOrGhost(profiles, f.ReceiverID),
		Status:    f.Status,
		BlockedBy: f.BlockedBy,
		CreatedAt: f.CreatedAt,
	}
}
