// Package export writes order snapshots as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/erazemk/lumiere/internal/model"
)

// Header is the first CSV record.
var Header = []string{"Order ID", "Table", "Status", "Items", "Total", "Placed At"}

// PlacedAtLayout formats the Placed At column.
const PlacedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// FileName returns the download name for an export made at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("lumiere-orders-%s.csv", t.Format("2006-01-02"))
}

// WriteCSV writes the header and one record per order, in the given order.
func WriteCSV(w io.Writer, orders []model.Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, o := range orders {
		if err := cw.Write(Record(o)); err != nil {
			return fmt.Errorf("writing order %s: %w", o.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// Record renders one order as a CSV record.
func Record(o model.Order) []string {
	lines := make([]string, len(o.Items))
	for i, it := range o.Items {
		lines[i] = fmt.Sprintf("%s x%d", oneLine(it.Name), it.Qty)
	}
	placed := ""
	if !o.PlacedAt.IsZero() {
		placed = o.PlacedAt.UTC().Format(PlacedAtLayout)
	}
	return []string{
		o.DisplayID(),
		oneLine(o.Table),
		string(o.Status),
		strings.Join(lines, "; "),
		o.Total.String(),
		placed,
	}
}

// oneLine folds line breaks into spaces so every order stays on one line
// of the file.
func oneLine(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}
