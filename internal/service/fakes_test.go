package service

import (
	"context"
	"sync"

	"github.com/campustrade/backend/internal/model"
	"github.com/campustrade/backend/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeStore implements ItemRepository and AppointmentRepository over maps,
// guarded by one mutex so the reservation path is atomic like the real
// transactional implementation.
type fakeStore struct {
	mu    sync.Mutex
	items map[string]*model.Item
	appts map[string]*model.Appointment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items: make(map[string]*model.Item),
		appts: make(map[string]*model.Appointment),
	}
}

func (s *fakeStore) putItem(item *model.Item) *model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = model.ItemStatusAvailable
	}
	cp := *item
	s.items[item.ID] = &cp
	return item
}

func (s *fakeStore) putAppointment(a *model.Appointment) *model.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	cp := *a
	s.appts[a.ID] = &cp
	return a
}

func (s *fakeStore) itemStatus(id string) model.ItemStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[id].Status
}

func (s *fakeStore) appointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appts)
}

// ItemRepository

func (s *fakeStore) Create(ctx context.Context, item *model.Item) error {
	s.putItem(item)
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id string) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *fakeStore) Update(ctx context.Context, item *model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id string, status model.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Status = status
	return nil
}

func (s *fakeStore) List(ctx context.Context, f repository.ItemFilter, limit, offset int) ([]model.Item, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Item
	for _, item := range s.items {
		if f.Status != "" && item.Status != f.Status {
			continue
		}
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		out = append(out, *item)
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) ListBySeller(ctx context.Context, sellerUID string) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Item
	for _, item := range s.items {
		if item.SellerUID == sellerUID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// AppointmentRepository

func (s *fakeStore) FindAppointmentByID(id string) (*model.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appts[id]
	if !ok {
		return nil, false
	}
	cp := *a
	return &cp, true
}

type fakeApptRepo struct {
	store *fakeStore
}

func (r *fakeApptRepo) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	a, ok := r.store.FindAppointmentByID(id)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *fakeApptRepo) ListByUser(ctx context.Context, uid string, status model.AppointmentStatus, upcomingOnly bool) ([]model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Appointment
	for _, a := range r.store.appts {
		if a.SellerUID != uid && a.BuyerUID != uid {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (r *fakeApptRepo) ListByItem(ctx context.Context, itemID string) ([]model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Appointment
	for _, a := range r.store.appts {
		if a.ItemID == itemID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeApptRepo) ListActiveByItem(ctx context.Context, itemID string) ([]model.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []model.Appointment
	for _, a := range r.store.appts {
		if a.ItemID == itemID &&
			(a.Status == model.AppointmentStatusPending || a.Status == model.AppointmentStatusConfirmed) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeApptRepo) CreateWithReservation(ctx context.Context, appt *model.Appointment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item, ok := r.store.items[appt.ItemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if item.Status != model.ItemStatusAvailable {
		return repository.ErrItemUnavailable
	}
	for _, existing := range r.store.appts {
		if existing.ItemID != appt.ItemID {
			continue
		}
		if existing.Status != model.AppointmentStatusPending && existing.Status != model.AppointmentStatusConfirmed {
			continue
		}
		if model.Overlaps(existing.StartTime, existing.EndTime, appt.StartTime, appt.EndTime) {
			return repository.ErrSlotTaken
		}
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	cp := *appt
	r.store.appts[appt.ID] = &cp
	item.Status = model.ItemStatusReserved
	return nil
}

func (r *fakeApptRepo) SaveWithItemStatus(ctx context.Context, appt *model.Appointment, itemStatus *model.ItemStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *appt
	r.store.appts[appt.ID] = &cp
	if itemStatus != nil {
		if item, ok := r.store.items[appt.ItemID]; ok {
			item.Status = *itemStatus
		}
	}
	return nil
}

func (r *fakeApptRepo) SetDB(db *gorm.DB) {}

func (s *fakeStore) SetDB(db *gorm.DB) {}

// fakeNotifRepo records created notifications.
type fakeNotifRepo struct {
	mu        sync.Mutex
	created   []model.Notification
	createErr error
}

func (r *fakeNotifRepo) Create(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	r.created = append(r.created, *n)
	return nil
}

func (r *fakeNotifRepo) all() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.created...)
}

func (r *fakeNotifRepo) ListByUser(ctx context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.created {
		if n.UserUID == userUID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotifRepo) MarkRead(ctx context.Context, id, userUID string) error { return nil }

func (r *fakeNotifRepo) MarkAllRead(ctx context.Context, userUID string) error { return nil }

func (r *fakeNotifRepo) CountUnread(ctx context.Context, userUID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cnt int64
	for _, n := range r.created {
		if n.UserUID == userUID && n.ReadAt == nil {
			cnt++
		}
	}
	return cnt, nil
}

func (r *fakeNotifRepo) SetDB(db *gorm.DB) {}

// fakePublisher records published events in order.
type pubEvent struct {
	topic   string
	event   string
	payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []pubEvent
}

func (p *fakePublisher) Publish(topic, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pubEvent{topic: topic, event: event, payload: payload})
}

func (p *fakePublisher) all() []pubEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pubEvent(nil), p.events...)
}

func (p *fakePublisher) byEvent(event string) []pubEvent {
	var out []pubEvent
	for _, e := range p.all() {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

// fakeMailer records sends on a channel so tests can wait for the async
// dispatch.
type fakeMailer struct {
	sent chan string
	err  error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan string, 8)}
}

func (m *fakeMailer) SendAppointment(ctx context.Context, kind string, appt *model.Appointment, item *model.Item) error {
	m.sent <- kind
	return m.err
}
