//go:build integration

package proposal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	identity "absher/internal/identity/models"
	"absher/internal/renewal/models"
	"absher/pkg/sentinel"
	"absher/pkg/testutil/containers"
)

func redisProposal(ttl time.Duration) models.Proposal {
	now := time.Now().UTC().Truncate(time.Second)
	return models.Proposal{
		ActionID:    uuid.New(),
		SessionID:   uuid.New(),
		ServiceType: identity.KindPassport,
		Fee:         164,
		Currency:    models.Currency,
		Description: "Renew Passport for 164 SAR.",
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

func TestRedisStore_SaveAndConsume(t *testing.T) {
	rc := containers.StartRedis(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	p := redisProposal(time.Minute)
	require.NoError(t, store.Save(ctx, p))

	got, err := store.Consume(ctx, p.ActionID)
	require.NoError(t, err)
	assert.Equal(t, p.ActionID, got.ActionID)
	assert.Equal(t, p.SessionID, got.SessionID)
	assert.Equal(t, p.ServiceType, got.ServiceType)
	assert.Equal(t, p.Fee, got.Fee)

	// GETDEL removed the key, so replay fails.
	_, err = store.Consume(ctx, p.ActionID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	rc := containers.StartRedis(t)
	store := NewRedisStore(rc.Client)
	ctx := context.Background()

	p := redisProposal(time.Second)
	require.NoError(t, store.Save(ctx, p))

	time.Sleep(1500 * time.Millisecond)
	_, err := store.Consume(ctx, p.ActionID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestRedisStore_SaveAlreadyExpired(t *testing.T) {
	rc := containers.StartRedis(t)
	store := NewRedisStore(rc.Client)

	p := redisProposal(-time.Minute)
	err := store.Save(context.Background(), p)
	assert.ErrorIs(t, err, sentinel.ErrExpired)
}

func TestRedisStore_UnknownAction(t *testing.T) {
	rc := containers.StartRedis(t)
	store := NewRedisStore(rc.Client)

	_, err := store.Consume(context.Background(), uuid.New())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
