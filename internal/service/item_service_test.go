package service

import (
	"context"
	"testing"
	"time"

	"github.com/campustrade/backend/internal/model"
	"github.com/campustrade/backend/internal/realtime"
	"github.com/campustrade/backend/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemFixture struct {
	store *fakeStore
	appts *fakeApptRepo
	pub   *fakePublisher
	svc   ItemService
}

func newItemFixture() *itemFixture {
	store := newFakeStore()
	appts := &fakeApptRepo{store: store}
	pub := &fakePublisher{}
	svc := NewItemService(store, appts, pub, zerolog.Nop())
	return &itemFixture{store: store, appts: appts, pub: pub, svc: svc}
}

func validInput() ItemInput {
	return ItemInput{
		Title:       "Graphing calculator",
		Description: "Barely used, includes cover and batteries",
		Price:       2500,
		Category:    "electronics",
		Condition:   "like-new",
	}
}

func TestCreateItem(t *testing.T) {
	f := newItemFixture()

	item, err := f.svc.Create(context.Background(), "seller-1", validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, model.ItemStatusAvailable, item.Status)
	assert.Equal(t, "seller-1", item.SellerUID)
}

func TestCreateItemValidation(t *testing.T) {
	f := newItemFixture()

	in := validInput()
	in.Title = "ab"
	_, err := f.svc.Create(context.Background(), "seller-1", in)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	in = validInput()
	in.Description = "too short"
	_, err = f.svc.Create(context.Background(), "seller-1", in)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = f.svc.Create(context.Background(), "", validInput())
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCreateItemTrimsWhitespace(t *testing.T) {
	f := newItemFixture()
	in := validInput()
	in.Title = "  Desk lamp  "

	item, err := f.svc.Create(context.Background(), "seller-1", in)
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", item.Title)
}

func TestUpdateItemOwnerOnly(t *testing.T) {
	f := newItemFixture()
	item, err := f.svc.Create(context.Background(), "seller-1", validInput())
	require.NoError(t, err)

	price := uint(1000)
	_, err = f.svc.Update(context.Background(), item.ID, "someone-else", ItemPatch{Price: &price})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Update(context.Background(), item.ID, "seller-1", ItemPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, uint(1000), got.Price)
}

func TestUpdateItemStatusDirectEdit(t *testing.T) {
	f := newItemFixture()
	item, err := f.svc.Create(context.Background(), "seller-1", validInput())
	require.NoError(t, err)

	pickup := model.ItemStatusPendingPickup
	got, err := f.svc.Update(context.Background(), item.ID, "seller-1", ItemPatch{Status: &pickup})
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusPendingPickup, got.Status)

	events := f.pub.byEvent(realtime.EventItemUpdated)
	require.Len(t, events, 1)
	assert.Equal(t, realtime.TopicGlobal, events[0].topic)

	bogus := model.ItemStatus("LOST")
	_, err = f.svc.Update(context.Background(), item.ID, "seller-1", ItemPatch{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestListItemsRejectsUnknownStatus(t *testing.T) {
	f := newItemFixture()
	_, _, err := f.svc.List(context.Background(), repository.ItemFilter{Status: "BROKEN"}, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestListItemsClampsLimit(t *testing.T) {
	f := newItemFixture()
	_, total, err := f.svc.List(context.Background(), repository.ItemFilter{}, 10000, -5)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestDeleteItemBlockedByActiveAppointment(t *testing.T) {
	f := newItemFixture()
	item, err := f.svc.Create(context.Background(), "seller-1", validInput())
	require.NoError(t, err)

	start := time.Now().Add(24 * time.Hour)
	f.store.putAppointment(&model.Appointment{
		ItemID:    item.ID,
		SellerUID: "seller-1",
		BuyerUID:  "buyer-1",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.AppointmentStatusPending,
	})

	err = f.svc.Delete(context.Background(), item.ID, "seller-1")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.svc.Get(context.Background(), item.ID)
	assert.NoError(t, err, "item must survive a blocked delete")
}

func TestDeleteItemAfterCancellation(t *testing.T) {
	f := newItemFixture()
	item, err := f.svc.Create(context.Background(), "seller-1", validInput())
	require.NoError(t, err)

	start := time.Now().Add(24 * time.Hour)
	f.store.putAppointment(&model.Appointment{
		ItemID:    item.ID,
		SellerUID: "seller-1",
		BuyerUID:  "buyer-1",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    model.AppointmentStatusCancelled,
	})

	require.NoError(t, f.svc.Delete(context.Background(), item.ID, "seller-1"))
	_, err = f.svc.Get(context.Background(), item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteItemOwnerOnly(t *testing.T) {
	f := newItemFixture()
	item, err := f.svc.Create(context.Background(), "seller-1", validInput())
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), item.ID, "intruder")
	assert.ErrorIs(t, err, ErrForbidden)
}
