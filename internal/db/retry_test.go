package db

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/politologod/vibes-marketplace/internal/utils"
)

// duplicateKeyError builds an error that IsMongoDuplicateKeyError recognizes,
// matching the shape the driver returns for an E11000 write failure.
func duplicateKeyError(key string) error {
	writeErr := mongo.WriteError{
		Code:    11000,
		Message: fmt.Sprintf("E11000 duplicate key error collection: test.products index: _id_ dup key: { : %q }", key),
	}
	return mongo.WriteException{WriteErrors: []mongo.WriteError{writeErr}}
}

func TestWithRetries_SuccessfulFirstAttempt(t *testing.T) {
	var opCalled int
	operation := func() error {
		opCalled++
		return nil
	}

	if err := WithRetries(operation, 3, IsMongoDuplicateKeyError); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if opCalled != 1 {
		t.Errorf("Expected operation to be called 1 time, got %d", opCalled)
	}
}

func TestWithRetries_FailureNonDuplicateKey(t *testing.T) {
	var opCalled int
	expectedErr := errors.New("connection reset")
	operation := func() error {
		opCalled++
		return expectedErr
	}

	err := WithRetries(operation, 3, IsMongoDuplicateKeyError)
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected error %v, got %v", expectedErr, err)
	}
	if opCalled != 1 {
		t.Errorf("Expected operation to be called 1 time, got %d", opCalled)
	}
}

func TestWithRetries_ExhaustRetries(t *testing.T) {
	var opCalled int
	collidingID := utils.SixID{0, 0, 0, 0, 0, 1}

	operation := func() error {
		opCalled++
		return duplicateKeyError(collidingID.String())
	}

	maxRetries := 3
	err := WithRetries(operation, maxRetries, IsMongoDuplicateKeyError)
	if err == nil {
		t.Fatal("Expected a duplicate key error, got nil")
	}
	if !IsMongoDuplicateKeyError(err) {
		t.Errorf("Expected a Mongo duplicate key error, got %T: %v", err, err)
	}

	expectedOpCalls := maxRetries + 1
	if opCalled != expectedOpCalls {
		t.Errorf("Expected operation to be called %d times, got %d", expectedOpCalls, opCalled)
	}
}

func TestTry_CollisionResolvesWithFreshID(t *testing.T) {
	originalHook := utils.NewSixIDHook
	defer func() { utils.NewSixIDHook = originalHook }()

	id1 := utils.SixID{1, 2, 3, 4, 5, 1}
	id2 := utils.SixID{1, 2, 3, 4, 5, 2}

	// NewSixID() yields id1 twice (both collide) and then id2.
	idsToReturn := []utils.SixID{id1, id1, id2}
	hookCallCount := 0
	utils.NewSixIDHook = func() (utils.SixID, bool) {
		if hookCallCount < len(idsToReturn) {
			id := idsToReturn[hookCallCount]
			hookCallCount++
			return id, true
		}
		return utils.SixID{}, false
	}

	insertedIDs := map[utils.SixID]bool{id1: true}

	var opCalled int
	operation := func() error {
		opCalled++
		newID := utils.NewSixID()
		if insertedIDs[newID] {
			return duplicateKeyError(newID.String())
		}
		insertedIDs[newID] = true
		return nil
	}

	if err := Try(operation); err != nil {
		t.Fatalf("Expected the collision to resolve, got: %v", err)
	}

	expectedOpCalls := 3
	if opCalled != expectedOpCalls {
		t.Errorf("Expected operation to be called %d times, got %d", expectedOpCalls, opCalled)
	}
	if !insertedIDs[id2] {
		t.Errorf("Expected ID %s to be inserted after retry", id2.String())
	}
	if len(insertedIDs) != 2 {
		t.Errorf("Expected 2 unique IDs to be inserted, got %d", len(insertedIDs))
	}
	if hookCallCount != 3 {
		t.Errorf("Expected NewSixIDHook to be called 3 times, got %d", hookCallCount)
	}
}

func TestIsMongoDuplicateKeyError_OtherErrors(t *testing.T) {
	if IsMongoDuplicateKeyError(errors.New("timeout")) {
		t.Error("Plain errors must not be treated as duplicate key errors")
	}
	writeErr := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121, Message: "Document failed validation"}}}
	if IsMongoDuplicateKeyError(writeErr) {
		t.Error("Non-11000 write errors must not be treated as duplicate key errors")
	}
}
