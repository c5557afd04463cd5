package db_test

import (
	"context"
	"database/sql"
	"testing"

	carddb "loyalty-backend/internal/card/db"
	"loyalty-backend/internal/database"
	"loyalty-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *carddb.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:?cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, database.DropSchema(context.Background(), bunDB))
	require.NoError(t, database.CreateSchema(context.Background(), bunDB))
	t.Cleanup(func() { bunDB.Close() })

	return &carddb.DB{Bun: bunDB}
}

func TestCreateAndGetCard(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	card := &models.BonusCard{Phone: "+420111222333"}
	require.NoError(t, db.CreateCard(ctx, card))
	require.NotZero(t, card.ID)

	got, err := db.GetCardByID(ctx, card.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "+420111222333", got.Phone)
	assert.Zero(t, got.Count)
	assert.Zero(t, got.UsedPoints)
}

func TestGetCardMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetCardByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPhoneIsUnique(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateCard(ctx, &models.BonusCard{Phone: "+420111222333"}))
	err := db.CreateCard(ctx, &models.BonusCard{Phone: "+420111222333"})
	assert.Error(t, err, "second card on the same phone must be rejected")
}

func TestLookupByPhoneAndUser(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	card := &models.BonusCard{Phone: "+420777888999", UserID: "2f6c9f3e-0b1a-4f29-9c55-0a2d9d8e6b11"}
	require.NoError(t, db.CreateCard(ctx, card))

	byPhone, err := db.GetCardByPhone(ctx, "+420777888999")
	require.NoError(t, err)
	require.NotNil(t, byPhone)
	assert.Equal(t, card.ID, byPhone.ID)

	byUser, err := db.GetCardByUserID(ctx, card.UserID)
	require.NoError(t, err)
	require.NotNil(t, byUser)
	assert.Equal(t, card.ID, byUser.ID)
}

func TestWriteCardBalances(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	card := &models.BonusCard{Phone: "+420111222333", Count: 100}
	require.NoError(t, db.CreateCard(ctx, card))

	require.NoError(t, db.WriteCardBalances(ctx, card.ID, 70, 30))

	got, err := db.GetCardByID(ctx, card.ID)
	require.NoError(t, err)
	assert.Equal(t, 70, got.Count)
	assert.Equal(t, 30, got.UsedPoints)

	err = db.WriteCardBalances(ctx, 999, 1, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteCard(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	card := &models.BonusCard{Phone: "+420111222333"}
	require.NoError(t, db.CreateCard(ctx, card))

	deleted, err := db.DeleteCard(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = db.DeleteCard(ctx, card.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
