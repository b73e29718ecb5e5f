package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/lumiere/internal/db"
	"github.com/erazemk/lumiere/internal/model"
	"github.com/erazemk/lumiere/internal/store"
)

// fakeOrders is a mutable collection for hubs under test.
type fakeOrders struct {
	mu     sync.Mutex
	orders []model.Order
}

func (f *fakeOrders) add(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, model.Order{ID: id, Status: model.StatusNew, Total: decimal.Zero})
}

func (f *fakeOrders) load(ctx context.Context) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Order, len(f.orders))
	copy(out, f.orders)
	return out, nil
}

func receive[T any](t *testing.T, s *Subscription[T]) Snapshot[T] {
	t.Helper()
	select {
	case snap, ok := <-s.C:
		if !ok {
			t.Fatal("subscription closed")
		}
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot[T]{}
}

func TestSubscribeDeliversCurrentSnapshot(t *testing.T) {
	src := &fakeOrders{}
	src.add("a")
	hub := NewHub(src.load)

	sub, err := hub.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	snap := receive(t, sub)
	if len(snap.Data) != 1 || snap.Data[0].ID != "a" {
		t.Errorf("expected current snapshot, got %+v", snap.Data)
	}
}

func TestSlowSubscriberGetsLatest(t *testing.T) {
	src := &fakeOrders{}
	hub := NewHub(src.load)
	ctx := context.Background()

	sub, _ := hub.Subscribe(ctx)
	defer sub.Close()

	for _, id := range []string{"a", "b", "c"} {
		src.add(id)
		if _, err := hub.Refresh(ctx); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}

	snap := receive(t, sub)
	if len(snap.Data) != 3 {
		t.Errorf("expected latest snapshot with 3 orders, got %d", len(snap.Data))
	}
	if snap.Seq != 4 {
		t.Errorf("expected seq 4, got %d", snap.Seq)
	}
	select {
	case extra := <-sub.C:
		t.Errorf("expected no queued snapshot, got seq %d", extra.Seq)
	default:
	}
}

func TestUnsubscribe(t *testing.T) {
	hub := NewHub((&fakeOrders{}).load)
	ctx, cancel := context.WithCancel(context.Background())

	a, _ := hub.Subscribe(ctx)
	b, _ := hub.Subscribe(context.Background())
	if hub.Subscribers() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", hub.Subscribers())
	}

	b.Close()
	b.Close()
	cancel()

	deadline := time.Now().Add(time.Second)
	for hub.Subscribers() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", hub.Subscribers())
	}

	// Drain the initial snapshot, then the channel must be closed.
	<-a.C
	if _, ok := <-a.C; ok {
		t.Error("expected closed channel after cancel")
	}
	if _, err := hub.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh after unsubscribe: %v", err)
	}
}

func TestRefreshError(t *testing.T) {
	boom := errors.New("boom")
	hub := NewHub(func(ctx context.Context) ([]model.Order, error) { return nil, boom })
	if _, err := hub.Subscribe(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestDetector(t *testing.T) {
	var d Detector
	snap := func(ids ...string) []model.Order {
		out := make([]model.Order, len(ids))
		for i, id := range ids {
			out[i] = model.Order{ID: id}
		}
		return out
	}

	if got := d.Observe(snap("a", "b")); got != nil {
		t.Errorf("baseline should not report new orders, got %v", got)
	}
	if got := d.Observe(snap("a", "b")); len(got) != 0 {
		t.Errorf("unchanged snapshot reported %v", got)
	}
	if got := d.Observe(snap("a", "b", "c", "d")); len(got) != 2 {
		t.Errorf("expected 2 new orders, got %v", got)
	}
	if got := d.Observe(snap("c")); len(got) != 0 {
		t.Errorf("removals should not alert, got %v", got)
	}

	d.Reset()
	if got := d.Observe(snap("x")); got != nil {
		t.Errorf("first snapshot after reset should be baseline, got %v", got)
	}
}

func TestDetectorEmptyBaseline(t *testing.T) {
	var d Detector
	d.Observe(nil)
	if got := d.Observe([]model.Order{{ID: "first"}}); len(got) != 1 {
		t.Errorf("first order after empty baseline should alert, got %v", got)
	}
}

func TestStationAlert(t *testing.T) {
	src := &fakeOrders{}
	src.add("a")
	hub := NewHub(src.load)
	ctx := context.Background()

	st, err := NewStation(ctx, hub, time.Minute)
	if err != nil {
		t.Fatalf("NewStation: %v", err)
	}
	defer st.Close()

	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	expire := make(chan time.Time, 1)
	st.now = func() time.Time { return now }
	st.after = func(time.Duration) <-chan time.Time { return expire }

	u, err := st.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if u.Alert || len(u.NewOrders) != 0 {
		t.Errorf("baseline raised alert: %+v", u)
	}

	src.add("b")
	src.add("c")
	hub.Refresh(ctx)
	u, _ = st.Next(ctx)
	if !u.Alert || len(u.NewOrders) != 2 {
		t.Errorf("expected one alert for two new orders, got %+v", u)
	}
	if !st.Alerting() {
		t.Error("expected station to be alerting")
	}

	now = now.Add(2 * time.Minute)
	expire <- now
	u, _ = st.Next(ctx)
	if u.Alert {
		t.Error("expected alert to expire")
	}
	if len(u.Snapshot.Data) != 3 {
		t.Errorf("expected snapshot kept after expire, got %d orders", len(u.Snapshot.Data))
	}
	if st.Latest().Alert || st.Alerting() {
		t.Error("expected latest update without alert")
	}
}

func TestStationAlertsPerSnapshot(t *testing.T) {
	src := &fakeOrders{}
	src.add("a")
	hub := NewHub(src.load)
	ctx := context.Background()

	st, err := NewStation(ctx, hub, time.Minute)
	if err != nil {
		t.Fatalf("NewStation: %v", err)
	}
	defer st.Close()
	st.now = func() time.Time { return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC) }
	st.after = func(time.Duration) <-chan time.Time { return nil }

	if u, _ := st.Next(ctx); u.Alert {
		t.Fatalf("baseline raised alert: %+v", u)
	}

	for _, id := range []string{"b", "c"} {
		src.add(id)
		if _, err := hub.Refresh(ctx); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
		u, err := st.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !u.Alert || len(u.NewOrders) != 1 || u.NewOrders[0] != id {
			t.Errorf("snapshot with %s: expected one alert for it, got %+v", id, u)
		}
	}
}

func TestStationClosed(t *testing.T) {
	hub := NewHub((&fakeOrders{}).load)
	st, _ := NewStation(context.Background(), hub, 0)
	if st.alertFor != DefaultAlertDuration {
		t.Errorf("expected default alert duration, got %v", st.alertFor)
	}
	st.Close()

	ctx := context.Background()
	for {
		_, err := st.Next(ctx)
		if errors.Is(err, ErrClosed) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	}
}

func TestBrokerChanged(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	if _, err := store.SeedMenu(ctx, database, model.DefaultMenu()); err != nil {
		t.Fatalf("SeedMenu: %v", err)
	}

	b := NewBroker(database)
	pub := &recordingPublisher{}
	b.SetPublisher(pub)

	sub, err := b.Orders.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()
	if snap := receive(t, sub); len(snap.Data) != 0 {
		t.Fatalf("expected empty orders, got %d", len(snap.Data))
	}

	if _, err := store.CreateOrder(ctx, database, store.NewOrder{
		Table: "3",
		Lines: []model.CartLine{{MenuItemID: "latte", Qty: 1}},
	}); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	b.Changed(ctx, CollectionOrders)

	snap := receive(t, sub)
	if len(snap.Data) != 1 || snap.Data[0].Table != "3" {
		t.Errorf("expected new order in snapshot, got %+v", snap.Data)
	}
	if len(pub.published) != 1 || pub.published[0] != CollectionOrders {
		t.Errorf("expected one orders notice, got %v", pub.published)
	}

	menu, err := b.Menu.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(menu.Data) != len(model.DefaultMenu()) {
		t.Errorf("expected full menu, got %d", len(menu.Data))
	}
}

func TestBrokerChangedAfterWriterHungUp(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	if _, err := store.SeedMenu(ctx, database, model.DefaultMenu()); err != nil {
		t.Fatalf("SeedMenu: %v", err)
	}

	b := NewBroker(database)
	pub := &recordingPublisher{}
	b.SetPublisher(pub)
	if _, err := b.Orders.Latest(ctx); err != nil {
		t.Fatalf("Latest: %v", err)
	}

	if _, err := store.CreateOrder(ctx, database, store.NewOrder{
		Table: "5",
		Lines: []model.CartLine{{MenuItemID: "espresso", Qty: 1}},
	}); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	gone, cancel := context.WithCancel(ctx)
	cancel()
	b.Changed(gone, CollectionOrders)

	snap, err := b.Orders.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(snap.Data) != 1 {
		t.Errorf("expected the committed order in the snapshot, got %d orders", len(snap.Data))
	}
	if len(pub.published) != 1 {
		t.Errorf("expected the change to be published, got %v", pub.published)
	}
}

type recordingPublisher struct {
	published []Collection
}

func (p *recordingPublisher) Publish(ctx context.Context, c Collection) error {
	p.published = append(p.published, c)
	return nil
}

func TestRelayHandle(t *testing.T) {
	src := &fakeOrders{}
	b := &Broker{
		Orders: NewHub(src.load),
		Menu:   NewHub(func(ctx context.Context) ([]model.MenuItem, error) { return nil, nil }),
	}
	r := &Relay{origin: "self", broker: b}
	ctx := context.Background()

	r.handle(ctx, `{"origin":"self","collection":"orders"}`)
	r.handle(ctx, `not json`)
	if snap, _ := b.Orders.Latest(ctx); snap.Seq != 1 {
		t.Errorf("own and malformed notices should not refresh, seq %d", snap.Seq)
	}

	src.add("remote")
	r.handle(ctx, `{"origin":"other","collection":"orders"}`)
	snap, _ := b.Orders.Latest(ctx)
	if snap.Seq != 2 || len(snap.Data) != 1 {
		t.Errorf("expected refresh from remote notice, got seq %d with %d orders", snap.Seq, len(snap.Data))
	}
}
