package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPaid, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusProcessing, false},
		{StatusCancelled, StatusPaid, false},
		{StatusPaid, StatusPaid, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"from %s to %s", tt.from, tt.to)
	}
}

func newStatusFixture(initial Status) (*StatusService, *mockOrderRepo, *mockNotifier) {
	repo := &mockOrderRepo{
		orders: map[int64]*Order{
			1: {ID: 1, Status: initial, Buyer: Buyer{Guest: guestDetails()}},
		},
	}
	notifier := &mockNotifier{}
	return NewStatusService(repo, notifier), repo, notifier
}

func TestStatusUpdate_ValidTransition(t *testing.T) {
	svc, repo, notifier := newStatusFixture(StatusPaid)

	o, err := svc.Update(context.Background(), 1, StatusProcessing, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, o.Status)
	assert.Equal(t, StatusProcessing, repo.orders[1].Status)
	assert.Equal(t, []int64{1}, notifier.statusUpdates)
}

func TestStatusUpdate_InvalidTransition(t *testing.T) {
	svc, _, notifier := newStatusFixture(StatusDelivered)

	_, err := svc.Update(context.Background(), 1, StatusProcessing, nil)

	var trErr *InvalidTransitionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, StatusDelivered, trErr.From)
	assert.Equal(t, StatusProcessing, trErr.To)
	assert.Empty(t, notifier.statusUpdates)
}

func TestStatusUpdate_UnknownStatus(t *testing.T) {
	svc, _, _ := newStatusFixture(StatusPaid)

	_, err := svc.Update(context.Background(), 1, Status("wobbly"), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown order status")
}

func TestStatusUpdate_SameStatusIsNoOp(t *testing.T) {
	svc, _, notifier := newStatusFixture(StatusShipped)

	o, err := svc.Update(context.Background(), 1, StatusShipped, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusShipped, o.Status)
	assert.Empty(t, notifier.statusUpdates, "no change means no email")
}

func TestStatusUpdate_TrackingNumber(t *testing.T) {
	svc, repo, _ := newStatusFixture(StatusProcessing)
	tn := "GH-TRACK-001"

	o, err := svc.Update(context.Background(), 1, StatusShipped, &tn)

	require.NoError(t, err)
	assert.Equal(t, "GH-TRACK-001", o.TrackingNumber)
	assert.Equal(t, "GH-TRACK-001", repo.orders[1].TrackingNumber)
}

func TestStatusUpdate_OrderNotFound(t *testing.T) {
	svc, _, _ := newStatusFixture(StatusPaid)

	_, err := svc.Update(context.Background(), 99, StatusProcessing, nil)

	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatusUpdate_RepoError(t *testing.T) {
	svc, repo, notifier := newStatusFixture(StatusPaid)
	repo.statusErr = errors.New("db write failed")

	_, err := svc.Update(context.Background(), 1, StatusProcessing, nil)

	require.Error(t, err)
	assert.Empty(t, notifier.statusUpdates)
}
