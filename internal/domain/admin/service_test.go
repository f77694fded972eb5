package admin

import (
	"context"
	"errors"
	"testing"

	"lostfound/internal/domain/item"
	"lostfound/internal/domain/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeItems map[item.Kind]map[item.Status]int64

func (f fakeItems) CountByStatus(_ context.Context, k item.Kind) (map[item.Status]int64, error) {
	return f[k], nil
}

type fakeRequests struct {
	counts map[request.Kind]map[request.Status]int64
	err    error
}

func (f fakeRequests) CountByStatus(_ context.Context, k request.Kind) (map[request.Status]int64, error) {
	return f.counts[k], f.err
}

func TestStats(t *testing.T) {
	svc := NewService(
		fakeItems{
			item.KindFound: {item.StatusPending: 2, item.StatusApproved: 5},
			item.KindLost:  {item.StatusApproved: 3},
		},
		fakeRequests{counts: map[request.Kind]map[request.Status]int64{
			request.KindClaim: {request.StatusPending: 4, request.StatusApproved: 1, request.StatusRetrieved: 7},
			request.KindFound: {request.StatusPending: 1},
		}},
		nil,
	)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 7, stats.Items["found"].Total)
	assert.EqualValues(t, 2, stats.Items["found"].ByStatus["pending"])
	assert.EqualValues(t, 3, stats.Items["lost"].Total)
	assert.EqualValues(t, 12, stats.Requests["claim"].Total)
	assert.EqualValues(t, 5, stats.OpenClaims)
	assert.EqualValues(t, 1, stats.AwaitPickup)
}

func TestStats_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(fakeItems{}, fakeRequests{err: boom}, nil)

	_, err := svc.Stats(context.Background())
	assert.ErrorIs(t, err, boom)
}
