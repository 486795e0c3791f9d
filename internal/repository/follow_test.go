package repository

import (
	"context"
	"testing"

	"pulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepositoryGetEdge(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	edge, err := repo.GetEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, edge, "no edge yet")

	require.NoError(t, repo.Create(ctx, &models.Follow{
		FollowerID: alice.ID,
		FolloweeID: bob.ID,
		Status:     models.FollowStatusPending,
	}))

	edge, err = repo.GetEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, models.FollowStatusPending, edge.Status)

	reverse, err := repo.GetEdge(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, reverse, "edges are directed")
}

func TestFollowRepositoryStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	follow := &models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID, Status: models.FollowStatusPending}
	require.NoError(t, repo.Create(ctx, follow))

	ok, err := repo.IsAcceptedFollower(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok, "pending follows do not grant access")

	require.NoError(t, repo.UpdateStatus(ctx, follow.ID, models.FollowStatusAccepted))

	ok, err = repo.IsAcceptedFollower(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	t.Run("MissingEdge", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, 9999, models.FollowStatusAccepted)
		assert.True(t, models.IsCode(err, "NOT_FOUND"))
	})
}

func TestFollowRepositoryAcceptedFolloweeIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")
	dave := createTestUser(t, db, "dave")

	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID, Status: models.FollowStatusAccepted}))
	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: carol.ID, Status: models.FollowStatusPending}))
	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: dave.ID, FolloweeID: carol.ID, Status: models.FollowStatusAccepted}))

	ids, err := repo.AcceptedFolloweeIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID}, ids, "pending edges and other followers' edges are excluded")
}

func TestFollowRepositoryPendingRequests(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	target := createTestUser(t, db, "target")
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: target.ID, Status: models.FollowStatusPending}))
	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: bob.ID, FolloweeID: target.ID, Status: models.FollowStatusAccepted}))

	requests, err := repo.PendingRequests(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, alice.ID, requests[0].FollowerID)
	assert.Equal(t, "alice", requests[0].Follower.Username, "follower should be preloaded")
}

func TestFollowRepositoryDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, &models.Follow{FollowerID: alice.ID, FolloweeID: bob.ID, Status: models.FollowStatusAccepted}))
	require.NoError(t, repo.Delete(ctx, alice.ID, bob.ID))

	edge, err := repo.GetEdge(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, edge)

	assert.NoError(t, repo.Delete(ctx, alice.ID, bob.ID), "deleting a missing edge is a no-op")
}
