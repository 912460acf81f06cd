package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"studioslot/internal/class"
	"studioslot/internal/pass"
)

// memStore backs the booking, class and pass repositories with maps. Its
// transactor runs one unit of work at a time and restores a snapshot when the
// work fails, which gives the same outcome as serializable isolation.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID   int
	classes  map[int]class.ClassInstance
	bookings map[int]Booking
	passes   map[int]pass.Pass
	journal  []pass.Transaction
	names    map[int]string
}

func newMemStore() *memStore {
	return &memStore{
		classes:  map[int]class.ClassInstance{},
		bookings: map[int]Booking{},
		passes:   map[int]pass.Pass{},
		names:    map[int]string{},
	}
}

type memTxKey struct{}

type memSnapshot struct {
	nextID   int
	classes  map[int]class.ClassInstance
	bookings map[int]Booking
	passes   map[int]pass.Pass
	journal  []pass.Transaction
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		nextID:   s.nextID,
		classes:  make(map[int]class.ClassInstance, len(s.classes)),
		bookings: make(map[int]Booking, len(s.bookings)),
		passes:   make(map[int]pass.Pass, len(s.passes)),
		journal:  append([]pass.Transaction(nil), s.journal...),
	}
	for k, v := range s.classes {
		snap.classes[k] = v
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.passes {
		snap.passes[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID = snap.nextID
	s.classes = snap.classes
	s.bookings = snap.bookings
	s.passes = snap.passes
	s.journal = snap.journal
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *memStore) addClass(c class.ClassInstance) *class.ClassInstance {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.id()
	if c.Status == "" {
		c.Status = class.StatusScheduled
	}
	s.classes[c.ID] = c
	return &c
}

func (s *memStore) addPass(p pass.Pass) *pass.Pass {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.id()
	p.IsActive = true
	if p.Status == "" {
		p.Status = pass.StatusActive
	}
	s.passes[p.ID] = p
	return &p
}

func (s *memStore) passByID(id int) pass.Pass {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes[id]
}

func (s *memStore) bookingByID(id int) Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

func (s *memStore) bookingsFor(classID int) []Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Booking
	for _, b := range s.bookings {
		if b.ClassID == classID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) countStatus(classID int, status Status) int {
	n := 0
	for _, b := range s.bookingsFor(classID) {
		if b.Status == status {
			n++
		}
	}
	return n
}

func (s *memStore) journalFor(passID int) []pass.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []pass.Transaction
	for _, tx := range s.journal {
		if tx.PassID == passID {
			out = append(out, tx)
		}
	}
	return out
}

func (s *memStore) bookingRepo() Repository { return memBookings{s} }
func (s *memStore) classRepo() class.Repository { return memClasses{s} }
func (s *memStore) passRepo() pass.Repository { return memPasses{s} }

type memBookings struct{ s *memStore }

func (r memBookings) Create(ctx context.Context, b *Booking) (*Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.bookings {
		if existing.UserID == b.UserID && existing.ClassID == b.ClassID && existing.Status.Active() {
			return nil, ErrDuplicateBooking
		}
	}

	created := *b
	created.ID = r.s.id()
	r.s.bookings[created.ID] = created
	return &created, nil
}

func (r memBookings) GetByID(ctx context.Context, id int) (*Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, ErrBookingNotFound
	}
	return &b, nil
}

func (r memBookings) GetByIDForUpdate(ctx context.Context, id int) (*Booking, error) {
	return r.GetByID(ctx, id)
}

func (r memBookings) HasActiveBooking(ctx context.Context, userID, classID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, b := range r.s.bookings {
		if b.UserID == userID && b.ClassID == classID && b.Status.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (r memBookings) UpdateStatus(ctx context.Context, b *Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.bookings[b.ID]; !ok {
		return ErrBookingNotFound
	}
	r.s.bookings[b.ID] = *b
	return nil
}

func (r memBookings) ListActiveByClass(ctx context.Context, classID int) ([]Booking, error) {
	out := []Booking{}
	for _, b := range r.s.bookingsFor(classID) {
		if b.Status.Active() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memBookings) ListByUser(ctx context.Context, userID int) ([]BookingWithDetails, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []BookingWithDetails{}
	for _, b := range r.s.bookings {
		if b.UserID != userID {
			continue
		}
		c := r.s.classes[b.ClassID]
		out = append(out, BookingWithDetails{
			Booking:    b,
			ClassTitle: c.Title,
			Instructor: c.Instructor,
			ClassStart: c.StartTime,
			ClassEnd:   c.EndTime,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassStart.After(out[j].ClassStart) })
	return out, nil
}

func (r memBookings) ListRoster(ctx context.Context, classID int) ([]RosterEntry, error) {
	out := []RosterEntry{}
	for _, b := range r.s.bookingsFor(classID) {
		if b.Status == StatusCancelled {
			continue
		}
		out = append(out, RosterEntry{Booking: b, UserName: r.s.names[b.UserID]})
	}
	return out, nil
}

func (r memBookings) AttendedDays(ctx context.Context, userID int, since time.Time) ([]time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := map[time.Time]bool{}
	days := []time.Time{}
	for _, b := range r.s.bookings {
		if b.UserID != userID || b.Status != StatusAttended {
			continue
		}
		d := r.s.classes[b.ClassID].Date
		if d.Before(since) || seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days, nil
}

type memClasses struct{ s *memStore }

func (r memClasses) Create(ctx context.Context, c *class.ClassInstance) (*class.ClassInstance, error) {
	return r.s.addClass(*c), nil
}

func (r memClasses) GetByID(ctx context.Context, id int) (*class.ClassInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.classes[id]
	if !ok {
		return nil, class.ErrClassNotFound
	}
	return &c, nil
}

func (r memClasses) GetByIDForUpdate(ctx context.Context, id int) (*class.ClassInstance, error) {
	return r.GetByID(ctx, id)
}

func (r memClasses) ListWithAvailability(ctx context.Context, day time.Time, after *time.Time) ([]class.ClassWithAvailability, error) {
	return nil, nil
}

func (r memClasses) BookedCount(ctx context.Context, classID int) (int, error) {
	return r.s.countStatus(classID, StatusBooked), nil
}

func (r memClasses) WaitlistCount(ctx context.Context, classID int) (int, error) {
	return r.s.countStatus(classID, StatusWaitlist), nil
}

func (r memClasses) WaitlistQueue(ctx context.Context, classID int) ([]class.QueuedBooking, error) {
	queue := []class.QueuedBooking{}
	for _, b := range r.s.bookingsFor(classID) {
		if b.Status == StatusWaitlist {
			queue = append(queue, class.QueuedBooking{BookingID: b.ID, UserID: b.UserID, BookedAt: b.BookedAt})
		}
	}
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].BookedAt.Before(queue[j].BookedAt) })
	return queue, nil
}

func (r memClasses) MarkCancelled(ctx context.Context, classID int, reason string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.classes[classID]
	if !ok || c.Status == class.StatusCancelled {
		return class.ErrClassCancelled
	}
	c.Status = class.StatusCancelled
	c.CancelReason = &reason
	r.s.classes[classID] = c
	return nil
}

type memPasses struct{ s *memStore }

func (r memPasses) GetActivePass(ctx context.Context, userID int, now time.Time) (*pass.Pass, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var best *pass.Pass
	for _, p := range r.s.passes {
		if p.UserID != userID || !p.Usable(now) {
			continue
		}
		if best == nil || p.ValidUntil.After(best.ValidUntil) || (p.ValidUntil.Equal(best.ValidUntil) && p.ID > best.ID) {
			cp := p
			best = &cp
		}
	}
	if best == nil {
		return nil, pass.ErrPassNotFound
	}
	return best, nil
}

func (r memPasses) GetActivePassForUpdate(ctx context.Context, userID int, now time.Time) (*pass.Pass, error) {
	return r.GetActivePass(ctx, userID, now)
}

func (r memPasses) GetByID(ctx context.Context, id int) (*pass.Pass, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.passes[id]
	if !ok {
		return nil, pass.ErrPassNotFound
	}
	return &p, nil
}

func (r memPasses) GetByIDForUpdate(ctx context.Context, id int) (*pass.Pass, error) {
	return r.GetByID(ctx, id)
}

func (r memPasses) GetByExternalRef(ctx context.Context, ref string) (*pass.Pass, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.passes {
		if p.ExternalRef != nil && *p.ExternalRef == ref {
			return &p, nil
		}
	}
	return nil, pass.ErrPassNotFound
}

func (r memPasses) ListByUser(ctx context.Context, userID int) ([]pass.Pass, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := []pass.Pass{}
	for _, p := range r.s.passes {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r memPasses) Create(ctx context.Context, p *pass.Pass) (*pass.Pass, error) {
	return r.s.addPass(*p), nil
}

func (r memPasses) DeactivateOthers(ctx context.Context, userID, keepID int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, p := range r.s.passes {
		if p.UserID == userID && id != keepID {
			p.IsActive = false
			r.s.passes[id] = p
		}
	}
	return nil
}

func (r memPasses) UpdateBalance(ctx context.Context, p *pass.Pass) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.passes[p.ID]; !ok {
		return pass.ErrPassNotFound
	}
	r.s.passes[p.ID] = *p
	return nil
}

func (r memPasses) AddTransaction(ctx context.Context, tx *pass.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	tx.ID = r.s.id()
	r.s.journal = append(r.s.journal, *tx)
	return nil
}

func (r memPasses) TransactionRefExists(ctx context.Context, ref string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, tx := range r.s.journal {
		if tx.ExternalRef != nil && *tx.ExternalRef == ref {
			return true, nil
		}
	}
	return false, nil
}

func (r memPasses) NetDebitedForBooking(ctx context.Context, passID, bookingID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	net := 0
	for _, tx := range r.s.journal {
		if tx.PassID != passID || tx.BookingID == nil || *tx.BookingID != bookingID {
			continue
		}
		if tx.Type == pass.TxDebit || tx.Type == pass.TxRefund {
			net -= tx.Amount
		}
	}
	return net, nil
}

func (r memPasses) ListTransactions(ctx context.Context, passID int, limit, offset int) ([]pass.Transaction, error) {
	return r.s.journalFor(passID), nil
}

func (r memPasses) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, p := range r.s.passes {
		if p.Status != pass.StatusExpired && p.ValidUntil.Before(now) {
			p.Status = pass.StatusExpired
			r.s.passes[id] = p
			n++
		}
	}
	return n, nil
}
