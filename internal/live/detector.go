package live

import "github.com/erazemk/lumiere/internal/model"

// Detector finds orders that were not in the previous snapshot. The first
// snapshot it sees only sets the baseline.
type Detector struct {
	seen   map[string]struct{}
	primed bool
}

// Observe records orders as the current snapshot and returns the ids that
// are new since the previous one. It returns nil for the baseline.
func (d *Detector) Observe(orders []model.Order) []string {
	next := make(map[string]struct{}, len(orders))
	var fresh []string
	for _, o := range orders {
		next[o.ID] = struct{}{}
		if _, ok := d.seen[o.ID]; !ok && d.primed {
			fresh = append(fresh, o.ID)
		}
	}
	d.seen = next
	d.primed = true
	return fresh
}

// Reset forgets the baseline, as after resubscribing.
func (d *Detector) Reset() {
	d.seen = nil
	d.primed = false
}
