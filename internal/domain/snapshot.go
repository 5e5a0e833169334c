package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and calendar-key format for all dates.
const DateLayout = "2006-01-02"

// PriceCalendar maps a date key (YYYY-MM-DD) to the gross nightly price.
type PriceCalendar map[string]decimal.Decimal

// RoomType is a bookable room category with its stock and rate plans.
type RoomType struct {
	Name  string                   `json:"name"`
	Stock map[string]int           `json:"stock"`
	Plans map[string]PriceCalendar `json:"plans"`
}

// PlanNames returns the room's plan names in a stable (alphabetical) order.
func (r *RoomType) PlanNames() []string {
	names := make([]string, 0, len(r.Plans))
	for name := range r.Plans {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot is an immutable, point-in-time bundle of one hotel's calendars
// and partner configuration. It is replaced wholesale on import and never
// mutated afterwards; every simulation request operates on exactly one
// Snapshot reference.
type Snapshot struct {
	HotelID       string               `json:"hotel_id"`
	Version       string               `json:"version"`
	GeneratedAt   time.Time            `json:"generated_at"`
	ProcessedFrom string               `json:"processed_from"`
	ProcessedTo   string               `json:"processed_to"`
	DisplayOrder  []string             `json:"display_order"`
	Rooms         map[string]*RoomType `json:"rooms"`
	Partners      []*Partner           `json:"partners"`
}

// Room returns the named room type, if present.
func (s *Snapshot) Room(name string) (*RoomType, bool) {
	room, ok := s.Rooms[name]
	return room, ok
}

// RoomTypeNames returns all room type names, display order first, then any
// rooms missing from the display order in alphabetical order.
func (s *Snapshot) RoomTypeNames() []string {
	names := make([]string, 0, len(s.Rooms))
	seen := make(map[string]bool, len(s.Rooms))
	for _, name := range s.DisplayOrder {
		if _, ok := s.Rooms[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	rest := make([]string, 0, len(s.Rooms))
	for name := range s.Rooms {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// StockFor returns the stock for a room on a date key.
func (s *Snapshot) StockFor(roomType, dateKey string) (int, bool) {
	room, ok := s.Rooms[roomType]
	if !ok {
		return 0, false
	}
	stock, ok := room.Stock[dateKey]
	return stock, ok
}

// PriceFor returns the gross price for a room/plan on a date key.
func (s *Snapshot) PriceFor(roomType, planName, dateKey string) (decimal.Decimal, bool) {
	room, ok := s.Rooms[roomType]
	if !ok {
		return decimal.Decimal{}, false
	}
	prices, ok := room.Plans[planName]
	if !ok {
		return decimal.Decimal{}, false
	}
	price, ok := prices[dateKey]
	return price, ok
}

// InProcessedRange reports whether a date key falls inside the range the
// upload collaborator processed for this hotel. Dates outside the range
// have no meaningful stock or price data.
func (s *Snapshot) InProcessedRange(dateKey string) bool {
	if s.ProcessedFrom == "" || s.ProcessedTo == "" {
		return false
	}
	return dateKey >= s.ProcessedFrom && dateKey <= s.ProcessedTo
}
