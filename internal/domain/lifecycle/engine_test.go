package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"lostfound/internal/cache"
	"lostfound/internal/database"
	"lostfound/internal/domain/activity"
	"lostfound/internal/domain/fanout"
	"lostfound/internal/domain/item"
	"lostfound/internal/domain/notification"
	"lostfound/internal/domain/request"
	"lostfound/internal/live"
	"lostfound/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorder struct {
	mu      sync.Mutex
	changes []live.Change
}

func (r *recorder) Publish(c live.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) count(collection string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.changes {
		if c.Collection == collection {
			n++
		}
	}
	return n
}

type fixture struct {
	db       *gorm.DB
	engine   *Engine
	requests *request.Repository
	items    *item.Repository
	pub      *recorder
}

func setup(t *testing.T, atomic bool) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", "=", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:lifecycle_test_%s?mode=memory&cache=shared", name)
	db, err := database.Connect(dsn, database.Options{MaxOpenConns: 1, Silent: true})
	require.NoError(t, err)
	for _, k := range []item.Kind{item.KindLost, item.KindFound} {
		require.NoError(t, db.Table(k.Table()).AutoMigrate(&item.Item{}))
	}
	for _, k := range []request.Kind{request.KindClaim, request.KindFound} {
		require.NoError(t, db.Table(k.Table()).AutoMigrate(&request.Request{}))
	}
	require.NoError(t, db.AutoMigrate(&notification.Notification{}, &activity.Activity{}))

	requests := request.NewRepository(db)
	items := item.NewRepository(db)
	emitter := fanout.NewEmitter(notification.NewRepository(db), activity.NewRepository(db), cache.NewMemoryStore(), nil)
	pub := &recorder{}
	engine := NewEngine(db, requests, items, emitter, pub, Config{
		AtomicFanout:     atomic,
		OperationTimeout: 5 * time.Second,
		OfficeLocation:   "Student Affairs Office",
		OfficeHours:      "Mon-Fri 8:00-17:00",
	}, nil)

	return &fixture{db: db, engine: engine, requests: requests, items: items, pub: pub}
}

func (f *fixture) seed(t *testing.T, kind request.Kind, requestID, itemID string, status request.Status) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.items.Create(ctx, &item.Item{
		ID:        itemID,
		Kind:      kind.ItemKind(),
		Name:      "Blue Wallet",
		Landmark:  "Library 2F",
		Contact:   "0917",
		Images:    []item.Image{{FullSizeURL: "https://cdn/x.jpg"}},
		Reporter:  item.Reporter{UserID: "finder", Name: "Finder"},
		Status:    item.StatusApproved,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	require.NoError(t, f.requests.Create(ctx, &request.Request{
		ID:            requestID,
		Kind:          kind,
		ItemID:        itemID,
		RequesterID:   "student1",
		RequesterName: "Jane Doe",
		Contact:       "jane@campus.edu",
		Description:   "Has my ID inside",
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}))
}

func (f *fixture) notifications(t *testing.T, ref string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&notification.Notification{}).Where("reference_id = ?", ref).Count(&n).Error)
	return n
}

func (f *fixture) activities(t *testing.T, ref string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&activity.Activity{}).Where("reference_id = ?", ref).Count(&n).Error)
	return n
}

func TestApprove_ThenRetrieve(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		t.Run(fmt.Sprintf("atomic=%v", atomic), func(t *testing.T) {
			f := setup(t, atomic)
			ctx := context.Background()
			f.seed(t, request.KindClaim, "abc123", "found-1", request.StatusPending)

			approved, err := f.engine.Approve(ctx, request.KindClaim, "abc123", "admin1")
			require.NoError(t, err)
			assert.Equal(t, request.StatusApproved, approved.Status)
			assert.Contains(t, approved.StatusReason, "ABC123")
			assert.Contains(t, approved.StatusReason, "Blue Wallet")
			assert.Contains(t, approved.StatusReason, "Student Affairs Office")
			assert.Equal(t, "admin1", approved.HandledBy)

			retrieved, err := f.engine.MarkRetrieved(ctx, request.KindClaim, "abc123", "admin1")
			require.NoError(t, err)
			assert.Equal(t, request.StatusRetrieved, retrieved.Status)
			assert.Equal(t, "admin1", retrieved.RetrievalConfirmedBy)
			require.NotNil(t, retrieved.RetrievalDate)

			assert.EqualValues(t, 2, f.notifications(t, "abc123"))
			assert.EqualValues(t, 2, f.activities(t, "abc123"))
			assert.Equal(t, 2, f.pub.count(live.CollectionClaimRequests))
			assert.Equal(t, 2, f.pub.count(live.CollectionNotifications))
		})
	}
}

func TestReject_IsTerminal(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.seed(t, request.KindClaim, "xyz789", "found-1", request.StatusPending)

	rejected, err := f.engine.Reject(ctx, request.KindClaim, "xyz789", "admin1", "Insufficient proof of ownership")
	require.NoError(t, err)
	assert.Equal(t, request.StatusRejected, rejected.Status)
	assert.Equal(t, "Insufficient proof of ownership", rejected.RejectionReason)
	assert.Contains(t, rejected.StatusReason, "Insufficient proof of ownership")

	_, err = f.engine.Approve(ctx, request.KindClaim, "xyz789", "admin1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.engine.MarkRetrieved(ctx, request.KindClaim, "xyz789", "admin1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	assert.EqualValues(t, 1, f.notifications(t, "xyz789"))
}

func TestReject_RequiresReason(t *testing.T) {
	f := setup(t, true)
	f.seed(t, request.KindFound, "req-1", "lost-1", request.StatusPending)

	_, err := f.engine.Reject(context.Background(), request.KindFound, "req-1", "admin1", "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := f.requests.GetByID(context.Background(), request.KindFound, "req-1")
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, got.Status)
}

func TestMarkRetrieved_RequiresApproved(t *testing.T) {
	f := setup(t, true)
	f.seed(t, request.KindClaim, "req-1", "found-1", request.StatusPending)

	_, err := f.engine.MarkRetrieved(context.Background(), request.KindClaim, "req-1", "admin1")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.EqualValues(t, 0, f.notifications(t, "req-1"))
}

func TestApprove_UnknownRequest(t *testing.T) {
	f := setup(t, true)
	_, err := f.engine.Approve(context.Background(), request.KindClaim, "missing", "admin1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApprove_FoundReportUsesIntakeCode(t *testing.T) {
	f := setup(t, true)
	f.seed(t, request.KindFound, "def456-xx", "lost-1", request.StatusPending)

	got, err := f.engine.Approve(context.Background(), request.KindFound, "def456-xx", "admin1")
	require.NoError(t, err)
	assert.Contains(t, got.StatusReason, "Intake code: DEF456")
}

func TestApprove_OrphanedRequest(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	f.seed(t, request.KindClaim, "orphan-1", "found-1", request.StatusPending)
	require.NoError(t, f.items.Delete(ctx, item.KindFound, "found-1"))

	got, err := f.engine.Approve(ctx, request.KindClaim, "orphan-1", "admin1")
	require.NoError(t, err)
	assert.Contains(t, got.StatusReason, item.UnknownItemName)
	assert.EqualValues(t, 1, f.notifications(t, "orphan-1"))
}

func TestApprove_ConcurrentCallsProduceOneNotification(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		t.Run(fmt.Sprintf("atomic=%v", atomic), func(t *testing.T) {
			f := setup(t, atomic)
			f.seed(t, request.KindClaim, "race-1", "found-1", request.StatusPending)

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				ok      int
				invalid int
			)
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := f.engine.Approve(context.Background(), request.KindClaim, "race-1", "admin1")
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						ok++
					case errors.Is(err, apperr.ErrInvalidTransition):
						invalid++
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, 1, ok)
			assert.Equal(t, 1, invalid)
			assert.EqualValues(t, 1, f.notifications(t, "race-1"))
			assert.EqualValues(t, 1, f.activities(t, "race-1"))
		})
	}
}

func TestApprove_TwiceIsRejectedWithoutSecondFanout(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		t.Run(fmt.Sprintf("atomic=%v", atomic), func(t *testing.T) {
			f := setup(t, atomic)
			ctx := context.Background()
			f.seed(t, request.KindClaim, "twice-1", "found-1", request.StatusPending)

			_, err := f.engine.Approve(ctx, request.KindClaim, "twice-1", "admin1")
			require.NoError(t, err)

			_, err = f.engine.Approve(ctx, request.KindClaim, "twice-1", "admin1")
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

			assert.EqualValues(t, 1, f.notifications(t, "twice-1"))
			assert.EqualValues(t, 1, f.activities(t, "twice-1"))
			assert.Equal(t, 1, f.pub.count(live.CollectionClaimRequests))
		})
	}
}

func TestApprove_PublishesPreviousStatus(t *testing.T) {
	f := setup(t, true)
	f.seed(t, request.KindClaim, "prev-1", "found-1", request.StatusPending)

	_, err := f.engine.Approve(context.Background(), request.KindClaim, "prev-1", "admin1")
	require.NoError(t, err)

	f.pub.mu.Lock()
	defer f.pub.mu.Unlock()
	var got *live.Change
	for i := range f.pub.changes {
		if f.pub.changes[i].Collection == live.CollectionClaimRequests {
			got = &f.pub.changes[i]
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, live.OpUpdated, got.Op)
	assert.Equal(t, "approved", got.Fields["status"])
	assert.Equal(t, "pending", got.Prev["status"])
	assert.Equal(t, "student1", got.Prev["requester_id"])
}

func TestCode(t *testing.T) {
	assert.Equal(t, "ABC123", Code("abc123"))
	assert.Equal(t, "ABC123", Code("abc123-ffff"))
	assert.Equal(t, "AB", Code("ab"))
}
