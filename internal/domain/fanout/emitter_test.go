package fanout

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"lostfound/internal/cache"
	"lostfound/internal/database"
	"lostfound/internal/domain/activity"
	"lostfound/internal/domain/item"
	"lostfound/internal/domain/notification"
	"lostfound/internal/domain/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupEmitter(t *testing.T, guard cache.Store) (*Emitter, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:fanout_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn, database.Options{MaxOpenConns: 1, Silent: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&notification.Notification{}, &activity.Activity{}))

	return NewEmitter(notification.NewRepository(db), activity.NewRepository(db), guard, nil), db
}

func approvedClaim(id, requesterName string) Event {
	return Event{
		RequestKind: request.KindClaim,
		Transition:  TransitionApproved,
		Request: &request.Request{
			ID:            id,
			Kind:          request.KindClaim,
			ItemID:        "item-1",
			RequesterID:   "student1",
			RequesterName: requesterName,
			Status:        request.StatusApproved,
			StatusReason:  "Claim code: ABC123",
		},
		Item:    &item.Item{ID: "item-1", Name: "Blue Wallet", Landmark: "Library"},
		ActorID: "admin1",
	}
}

func count(t *testing.T, db *gorm.DB, model any, ref string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where("reference_id = ?", ref).Count(&n).Error)
	return n
}

func TestEmit_WritesNotificationAndActivity(t *testing.T) {
	e, db := setupEmitter(t, cache.NewMemoryStore())

	res, err := e.Emit(context.Background(), db, approvedClaim("abc123", "Jane Doe"))
	require.NoError(t, err)
	require.False(t, res.Duplicate)

	require.NotNil(t, res.Notification)
	assert.Equal(t, "student1", res.Notification.UserID)
	assert.Equal(t, "claim_approved", res.Notification.Type)
	assert.Equal(t, notification.StatusUnread, res.Notification.Status)
	assert.Contains(t, res.Notification.Message, "ABC123")

	require.NotNil(t, res.Activity)
	assert.Equal(t, "claim_approved", res.Activity.Type)
	assert.Equal(t, "admin1", res.Activity.ActorID)
	assert.Contains(t, res.Activity.Description, "Jane Doe")
}

func TestEmit_SecondCallIsDuplicate(t *testing.T) {
	for _, withGuard := range []bool{true, false} {
		var guard cache.Store
		if withGuard {
			guard = cache.NewMemoryStore()
		}
		e, db := setupEmitter(t, guard)
		ev := approvedClaim(fmt.Sprintf("req-%v", withGuard), "Jane Doe")

		_, err := e.Emit(context.Background(), db, ev)
		require.NoError(t, err)
		res, err := e.Emit(context.Background(), db, ev)
		require.NoError(t, err)

		assert.True(t, res.Duplicate)
		assert.EqualValues(t, 1, count(t, db, &notification.Notification{}, ev.Request.ID))
		assert.EqualValues(t, 1, count(t, db, &activity.Activity{}, ev.Request.ID))
	}
}

func TestEmit_ExactlyOnceUnderConcurrency(t *testing.T) {
	e, db := setupEmitter(t, nil)
	ev := approvedClaim("race-1", "Jane Doe")

	var wg sync.WaitGroup
	var mu sync.Mutex
	fresh := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.Emit(context.Background(), db, ev)
			if err != nil {
				return
			}
			if !res.Duplicate {
				mu.Lock()
				fresh++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fresh)
	assert.EqualValues(t, 1, count(t, db, &notification.Notification{}, ev.Request.ID))
	assert.EqualValues(t, 1, count(t, db, &activity.Activity{}, ev.Request.ID))
}

func TestEmit_MalformedActivitySuppressed(t *testing.T) {
	e, db := setupEmitter(t, cache.NewMemoryStore())
	ev := approvedClaim("ghost-1", item.UnknownUserName)

	res, err := e.Emit(context.Background(), db, ev)
	require.NoError(t, err)

	assert.Nil(t, res.Activity)
	assert.NotNil(t, res.Notification)
	assert.EqualValues(t, 0, count(t, db, &activity.Activity{}, ev.Request.ID))
	assert.EqualValues(t, 1, count(t, db, &notification.Notification{}, ev.Request.ID))

	again, err := e.Emit(context.Background(), db, ev)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
}

func TestEmit_ItemNameContainingNullKeepsActivity(t *testing.T) {
	e, db := setupEmitter(t, cache.NewMemoryStore())
	ev := approvedClaim("charger-1", "Jane Doe")
	ev.Item.Name = "nullsafe USB-C charger"

	res, err := e.Emit(context.Background(), db, ev)
	require.NoError(t, err)

	require.NotNil(t, res.Activity)
	assert.Contains(t, res.Activity.Description, "nullsafe USB-C charger")
	assert.EqualValues(t, 1, count(t, db, &activity.Activity{}, ev.Request.ID))
}

func TestEmit_NullRequesterNameSuppressesActivity(t *testing.T) {
	e, db := setupEmitter(t, cache.NewMemoryStore())
	ev := approvedClaim("null-1", "null")

	res, err := e.Emit(context.Background(), db, ev)
	require.NoError(t, err)
	assert.Nil(t, res.Activity)
	assert.NotNil(t, res.Notification)
}

func TestEmit_OrphanItemUsesPlaceholder(t *testing.T) {
	e, db := setupEmitter(t, nil)
	ev := approvedClaim("orphan-1", "Jane Doe")
	ev.Item = nil

	res, err := e.Emit(context.Background(), db, ev)
	require.NoError(t, err)
	assert.Contains(t, res.Notification.Message, item.UnknownItemName)
	assert.Equal(t, "item-1", res.Notification.ItemID)
}

func TestEmit_InsideRolledBackTransaction(t *testing.T) {
	guard := cache.NewMemoryStore()
	e, db := setupEmitter(t, guard)
	ev := approvedClaim("rb-1", "Jane Doe")

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := e.Emit(context.Background(), tx, ev); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)
	e.Release(context.Background(), ev)

	assert.EqualValues(t, 0, count(t, db, &notification.Notification{}, ev.Request.ID))

	res, err := e.Emit(context.Background(), db, ev)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
}

func TestEventType(t *testing.T) {
	ev := Event{RequestKind: request.KindFound, Transition: TransitionRetrieved}
	assert.Equal(t, "found_retrieved", ev.Type())
}
