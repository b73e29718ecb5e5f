package live

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/lumiere/internal/model"
	"github.com/erazemk/lumiere/internal/store"
)

// ChangeTimeout bounds the refresh and publish that follow a local write.
const ChangeTimeout = 5 * time.Second

// Collection names a hub.
type Collection string

// Collections.
const (
	CollectionOrders Collection = "orders"
	CollectionMenu   Collection = "menu"
)

// Publisher tells other instances that a collection changed.
type Publisher interface {
	Publish(ctx context.Context, c Collection) error
}

// Broker holds the order and menu hubs of one instance.
type Broker struct {
	Orders *Hub[[]model.Order]
	Menu   *Hub[[]model.MenuItem]

	mu  sync.RWMutex
	pub Publisher
}

// NewBroker creates hubs backed by the store.
func NewBroker(db *sql.DB) *Broker {
	return &Broker{
		Orders: NewHub(func(ctx context.Context) ([]model.Order, error) {
			return store.ListOrders(ctx, db)
		}),
		Menu: NewHub(func(ctx context.Context) ([]model.MenuItem, error) {
			return store.ListMenu(ctx, db, false)
		}),
	}
}

// SetPublisher installs p to be told about every local change.
func (b *Broker) SetPublisher(p Publisher) {
	b.mu.Lock()
	b.pub = p
	b.mu.Unlock()
}

// Changed refreshes the collection after a local write and tells other
// instances about it. The write has already happened, so failures are
// logged and not returned.
func (b *Broker) Changed(ctx context.Context, c Collection) {
	// A writer that hung up after commit must not keep the change from
	// subscribers.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ChangeTimeout)
	defer cancel()

	if err := b.Refresh(ctx, c); err != nil {
		slog.Error("refreshing collection", "collection", c, "error", err)
	}

	b.mu.RLock()
	pub := b.pub
	b.mu.RUnlock()
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, c); err != nil {
		slog.Error("publishing change", "collection", c, "error", err)
	}
}

// Refresh reloads a collection without telling other instances.
func (b *Broker) Refresh(ctx context.Context, c Collection) error {
	var err error
	switch c {
	case CollectionOrders:
		_, err = b.Orders.Refresh(ctx)
	case CollectionMenu:
		_, err = b.Menu.Refresh(ctx)
	default:
		slog.Warn("refresh of unknown collection", "collection", c)
	}
	return err
}
