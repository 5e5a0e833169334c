package simulation

import (
	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// accumulator folds rows into running statistics at full precision.
type accumulator struct {
	availableRows int
	pricedRows    int
	feasiblePairs map[string]bool
	totalDisc     decimal.Decimal
	totalNet      decimal.Decimal
	minDisc       *decimal.Decimal
	maxDisc       *decimal.Decimal
}

func newAccumulator() *accumulator {
	return &accumulator{feasiblePairs: make(map[string]bool)}
}

func (a *accumulator) add(row domain.Row) {
	// Rows outside the processed range carry no usable data at all.
	if row.Flag == domain.FlagOutOfRange {
		return
	}

	if row.Available {
		a.availableRows++
	}
	if row.Stock != nil && *row.Stock > 0 {
		// Occupancy feasibility is a property of the date/room pair, not
		// of each plan row.
		a.feasiblePairs[row.Date+"|"+row.RoomType] = true
	}

	if row.Flag == domain.FlagMissingPrice {
		return
	}

	a.pricedRows++
	a.totalDisc = a.totalDisc.Add(*row.DiscountedPrice)
	a.totalNet = a.totalNet.Add(*row.NetToHotel)
	if a.minDisc == nil || row.DiscountedPrice.LessThan(*a.minDisc) {
		v := *row.DiscountedPrice
		a.minDisc = &v
	}
	if a.maxDisc == nil || row.DiscountedPrice.GreaterThan(*a.maxDisc) {
		v := *row.DiscountedPrice
		a.maxDisc = &v
	}
}

// stats rounds the accumulated values to two decimals (round-half-even)
// for the output boundary.
func (a *accumulator) stats() domain.Stats {
	s := domain.Stats{
		AvailableRows:     a.availableRows,
		PricedRows:        a.pricedRows,
		OccupancyFeasible: len(a.feasiblePairs),
		TotalDiscounted:   a.totalDisc.RoundBank(2),
		TotalNet:          a.totalNet.RoundBank(2),
	}
	if a.pricedRows > 0 {
		count := decimal.NewFromInt(int64(a.pricedRows))
		s.AvgDiscounted = a.totalDisc.Div(count).RoundBank(2)
		s.AvgNet = a.totalNet.Div(count).RoundBank(2)
		s.MinDiscounted = a.minDisc.RoundBank(2)
		s.MaxDiscounted = a.maxDisc.RoundBank(2)
	}
	return s
}

// summarize reduces the row set into per-room-type and overall
// statistics. Rows must still carry full-precision values; rounding is
// applied once, here and in roundRows, never in between.
func summarize(rows []domain.Row, roomOrder []string) domain.Summary {
	overall := newAccumulator()
	perRoom := make(map[string]*accumulator, len(roomOrder))
	for _, room := range roomOrder {
		perRoom[room] = newAccumulator()
	}

	for _, row := range rows {
		overall.add(row)
		if acc, ok := perRoom[row.RoomType]; ok {
			acc.add(row)
		}
	}

	summary := domain.Summary{
		PerRoomType: make(map[string]domain.Stats, len(perRoom)),
		Overall:     overall.stats(),
	}
	for room, acc := range perRoom {
		summary.PerRoomType[room] = acc.stats()
	}
	return summary
}
