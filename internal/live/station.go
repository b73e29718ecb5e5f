package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erazemk/lumiere/internal/model"
)

// DefaultAlertDuration is how long a new-order alert stays raised.
const DefaultAlertDuration = 3500 * time.Millisecond

// ErrClosed is returned by Station.Next after the subscription ended.
var ErrClosed = errors.New("station closed")

// Update is what a station shows after a snapshot or an alert change.
type Update struct {
	Snapshot  Snapshot[[]model.Order]
	NewOrders []string
	Alert     bool
}

// Station is one staff screen's view of the order feed: its own
// subscription, the latest snapshot, and a new-order alert that clears
// itself.
type Station struct {
	sub      *Subscription[[]model.Order]
	alertFor time.Duration
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time
	detector Detector

	mu         sync.Mutex
	latest     Update
	alertUntil time.Time
}

// NewStation subscribes to hub. The first snapshot never raises an alert.
func NewStation(ctx context.Context, hub *Hub[[]model.Order], alertFor time.Duration) (*Station, error) {
	if alertFor <= 0 {
		alertFor = DefaultAlertDuration
	}
	sub, err := hub.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	return &Station{
		sub:      sub,
		alertFor: alertFor,
		now:      time.Now,
		after:    time.After,
	}, nil
}

// Next blocks until a new snapshot arrives or a raised alert clears.
func (s *Station) Next(ctx context.Context) (Update, error) {
	var expire <-chan time.Time
	s.mu.Lock()
	if !s.alertUntil.IsZero() {
		expire = s.after(s.alertUntil.Sub(s.now()))
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return Update{}, ctx.Err()
	case <-expire:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.alertUntil = time.Time{}
		s.latest.Alert = false
		s.latest.NewOrders = nil
		return s.latest, nil
	case snap, ok := <-s.sub.C:
		if !ok {
			return Update{}, ErrClosed
		}
		return s.apply(snap), nil
	}
}

func (s *Station) apply(snap Snapshot[[]model.Order]) Update {
	fresh := s.detector.Observe(snap.Data)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(fresh) > 0 {
		s.alertUntil = now.Add(s.alertFor)
	}
	s.latest = Update{
		Snapshot:  snap,
		NewOrders: fresh,
		Alert:     !s.alertUntil.IsZero() && now.Before(s.alertUntil),
	}
	return s.latest
}

// Latest returns the most recent update without blocking.
func (s *Station) Latest() Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Alerting reports whether a new-order alert is currently raised.
func (s *Station) Alerting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.alertUntil.IsZero() && s.now().Before(s.alertUntil)
}

// Close ends the station's subscription.
func (s *Station) Close() {
	s.sub.Close()
}
