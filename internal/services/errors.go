package services

import (
	"errors"
	"fmt"

	"github.com/n0ll22/HouseholdRPG/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrAlreadyExists  = errors.New("already exists")
	ErrAlreadyPending = errors.New("friend request already sent")
	ErrAlreadyBlocked = errors.New("user blocked")
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("not allowed")
	ErrStoreFailure   = errors.New("store failure")
)

// Error codes sent to clients.
const (
	CodeInvalidRequest = "InvalidRequest"
	CodeAlreadyExists  = "AlreadyExists"
	CodeAlreadyPending = "AlreadyPending"
	CodeAlreadyBlocked = "AlreadyBlocked"
	CodeNotFound       = "NotFound"
	CodeUnauthorized   = "Unauthorized"
	CodeStoreFailure   = "StoreFailure"
)

// Code returns the client-facing code for err. Unknown errors are store failures.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return CodeInvalidRequest
	case errors.Is(err, ErrAlreadyPending):
		return CodeAlreadyPending
	case errors.Is(err, ErrAlreadyBlocked):
		return CodeAlreadyBlocked
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	default:
		return CodeStoreFailure
	}
}

// storeErr classifies a repository error. Missing documents become ErrNotFound,
// everything else ErrStoreFailure with the cause kept in the message.
func storeErr(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreFailure, err)
}

func parseID(hex, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s %q: %w", what, hex, ErrInvalidRequest)
	}
	return id, nil
}
