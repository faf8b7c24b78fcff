package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusReceived, StatusPaid, true},
		{StatusReceived, StatusCancelled, true},
		{StatusReceived, StatusDelivered, false},
		{StatusPaid, StatusOnTheWay, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusDelivered, false},
		{StatusOnTheWay, StatusDelivered, true},
		{StatusOnTheWay, StatusCancelled, true},
		{StatusDelivered, StatusOnTheWay, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPaid, false},
		{StatusCancelled, StatusCancelled, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTransitionToPaidSetsIsPaid(t *testing.T) {
	o := &Order{Status: StatusReceived}

	require.NoError(t, o.TransitionTo(StatusPaid, time.Now()))
	assert.Equal(t, StatusPaid, o.Status)
	assert.True(t, o.IsPaid)
}

func TestTransitionToDeliveredStampsDelivery(t *testing.T) {
	now := time.Date(2024, 11, 3, 14, 0, 0, 0, time.UTC)
	o := &Order{Status: StatusOnTheWay}

	require.NoError(t, o.TransitionTo(StatusDelivered, now))
	assert.True(t, o.IsDelivered)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, now, *o.DeliveredAt)
}

func TestTransitionBackToOnTheWayClearsDelivery(t *testing.T) {
	now := time.Now()
	o := &Order{Status: StatusOnTheWay}
	require.NoError(t, o.TransitionTo(StatusDelivered, now))

	require.NoError(t, o.TransitionTo(StatusOnTheWay, now))
	assert.False(t, o.IsDelivered)
	assert.Nil(t, o.DeliveredAt)
}

func TestTransitionToRejectsInvalidMove(t *testing.T) {
	o := &Order{ID: primitive.NewObjectID(), Status: StatusDelivered}

	err := o.TransitionTo(StatusCancelled, time.Now())
	require.Error(t, err)
	assert.Equal(t, StatusDelivered, o.Status)
	assert.Contains(t, err.Error(), "cannot change status")
}

func TestCanBeCancelledBy(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	paid := &Order{User: owner, Status: StatusPaid}
	assert.True(t, paid.CanBeCancelledBy(owner, RoleUser))
	assert.False(t, paid.CanBeCancelledBy(stranger, RoleUser))
	assert.True(t, paid.CanBeCancelledBy(stranger, RoleAdmin))

	received := &Order{User: owner, Status: StatusReceived}
	assert.True(t, received.CanBeCancelledBy(owner, RoleUser))

	delivered := &Order{User: owner, Status: StatusDelivered}
	assert.False(t, delivered.CanBeCancelledBy(owner, RoleUser))
	assert.False(t, delivered.CanBeCancelledBy(owner, RoleAdmin))
}
