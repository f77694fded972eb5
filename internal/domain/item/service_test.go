package item

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"lostfound/internal/database"
	"lostfound/internal/domain/access"
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

func (r *recorder) last() live.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changes[len(r.changes)-1]
}

type fakePurger struct {
	itemIDs []string
}

func (f *fakePurger) DeleteByItemTx(_ context.Context, _ *gorm.DB, itemID string) (int64, error) {
	f.itemIDs = append(f.itemIDs, itemID)
	return 2, nil
}

type fakeMedia struct {
	deleted []string
}

func (f *fakeMedia) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	if id == "broken" {
		return errors.New("storage offline")
	}
	return nil
}

type fixture struct {
	svc    *Service
	pub    *recorder
	purger *fakePurger
	media  *fakeMedia
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:item_test_%s?mode=memory&cache=shared", t.Name())
	db, err := database.Connect(dsn, database.Options{MaxOpenConns: 1, Silent: true})
	require.NoError(t, err)
	for _, k := range []Kind{KindLost, KindFound} {
		require.NoError(t, db.Table(k.Table()).AutoMigrate(&Item{}))
	}

	f := &fixture{pub: &recorder{}, purger: &fakePurger{}, media: &fakeMedia{}}
	f.svc = NewService(NewRepository(db), f.purger, f.media, f.pub, nil)
	return f
}

var (
	student = access.Session{UserID: "student1", Name: "Jane Doe"}
	office  = access.Session{UserID: "admin1", Name: "Office", IsAdmin: true}
)

func validItem(name string) CreateItemRequest {
	return CreateItemRequest{
		Name:     "  " + name + "  ",
		Landmark: "Library 2F",
		Contact:  "jane@campus.edu",
		Images:   []Image{{FullSizeURL: "/static/media/a/full.jpg", MediaID: "m-1"}},
	}
}

func TestCreate_InitialStatusByKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	found, err := f.svc.Create(ctx, student, KindFound, validItem("Blue Wallet"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, found.Status)
	assert.Equal(t, "Blue Wallet", found.Name)
	assert.Equal(t, "student1", found.Reporter.UserID)
	assert.Equal(t, "Jane Doe", found.Reporter.Name)

	last := f.pub.last()
	assert.Equal(t, live.CollectionFoundItems, last.Collection)
	assert.Equal(t, live.OpCreated, last.Op)
	assert.Equal(t, "pending", last.Fields["status"])

	lost, err := f.svc.Create(ctx, student, KindLost, validItem("Umbrella"))
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, lost.Status)
	assert.Equal(t, live.CollectionLostItems, f.pub.last().Collection)
}

func TestCreate_RequiresImage(t *testing.T) {
	f := newFixture(t)
	in := validItem("Keys")
	in.Images = nil

	_, err := f.svc.Create(context.Background(), student, KindLost, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestList_StudentsSeeOnlyApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, student, KindFound, validItem("Pending one"))
	require.NoError(t, err)
	approved, err := f.svc.Create(ctx, student, KindFound, validItem("Approved one"))
	require.NoError(t, err)
	_, err = f.svc.Review(ctx, KindFound, approved.ID, StatusApproved, office.UserID)
	require.NoError(t, err)

	res, err := f.svc.List(ctx, student, ListFilter{Kind: KindFound})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, approved.ID, res.Items[0].ID)

	res, err = f.svc.List(ctx, office, ListFilter{Kind: KindFound})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
}

func TestListMine_SpansKinds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, student, KindFound, validItem("Found thing"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, student, KindLost, validItem("Lost thing"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, access.Session{UserID: "other"}, KindLost, validItem("Not mine"))
	require.NoError(t, err)

	mine, err := f.svc.ListMine(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	it, err := f.svc.Create(ctx, student, KindFound, validItem("Calculator"))
	require.NoError(t, err)

	_, err = f.svc.Review(ctx, KindFound, it.ID, StatusPending, office.UserID)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	reviewed, err := f.svc.Review(ctx, KindFound, it.ID, StatusRejected, office.UserID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, reviewed.Status)
	last := f.pub.last()
	assert.Equal(t, live.OpUpdated, last.Op)
	assert.Equal(t, "rejected", last.Fields["status"])
	assert.Equal(t, "pending", last.Prev["status"])

	_, err = f.svc.Review(ctx, KindFound, it.ID, StatusApproved, office.UserID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.Review(ctx, KindFound, "missing", StatusApproved, office.UserID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDelete_PurgesNotificationsAndMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := validItem("Laptop")
	in.Images = append(in.Images, Image{FullSizeURL: "/x.jpg", MediaID: "broken"}, Image{FullSizeURL: "/external.jpg"})
	it, err := f.svc.Create(ctx, student, KindLost, in)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, KindLost, it.ID, office.UserID))

	assert.Equal(t, []string{it.ID}, f.purger.itemIDs)
	assert.Equal(t, []string{"m-1", "broken"}, f.media.deleted)
	assert.Equal(t, live.OpDeleted, f.pub.last().Op)

	_, err = f.svc.Get(ctx, KindLost, it.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = f.svc.Delete(ctx, KindLost, it.ID, office.UserID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSnapshot_FiltersByReporter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, student, KindLost, validItem("Mine"))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, access.Session{UserID: "other"}, KindLost, validItem("Theirs"))
	require.NoError(t, err)

	rows, err := f.svc.Snapshot(KindLost)(ctx, map[string]string{"reporter_id": "student1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mine", rows[0].(Item).Name)
}
