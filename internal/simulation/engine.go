// Package simulation implements the tariff simulation engine: a pure,
// single-pass computation over one immutable snapshot, staged as
// validate -> load snapshot -> compute rows -> aggregate.
package simulation

import (
	"context"
	"strings"
	"time"

	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/hotelrm/backend-go/internal/partner"
	"github.com/hotelrm/backend-go/internal/snapshot"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Engine computes realized prices and availability for date x room x plan
// combinations. It holds no mutable state; concurrent Simulate calls need
// no coordination.
type Engine struct {
	store snapshot.Store
}

func NewEngine(store snapshot.Store) *Engine {
	return &Engine{store: store}
}

// Simulate runs one tariff simulation. Fatal errors (validation, unknown
// hotel or partner, snapshot unavailable) short-circuit before any row is
// produced; row-level data gaps are flagged inline and never abort the
// iteration.
func (e *Engine) Simulate(ctx context.Context, req domain.SimulationRequest) (*domain.SimulationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	snap, err := e.store.Load(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}

	resolver := partner.NewResolver(snap.Partners)
	p, err := resolver.Resolve(req.Partner)
	if err != nil {
		return nil, err
	}

	rooms, err := selectRooms(snap, req.RoomTypes)
	if err != nil {
		return nil, err
	}

	rows, err := computeRows(snap, p, req, rooms)
	if err != nil {
		return nil, err
	}

	// Aggregate from full-precision row values, then round everything at
	// the output boundary so sums do not accumulate rounding drift.
	summary := summarize(rows, rooms)
	roundRows(rows)

	return &domain.SimulationResult{
		HotelID:         snap.HotelID,
		Partner:         p.Name,
		SnapshotVersion: snap.Version,
		StartDate:       req.StartDate.Format(domain.DateLayout),
		EndDate:         req.EndDate.Format(domain.DateLayout),
		Rows:            rows,
		Summary:         summary,
	}, nil
}

// Availability returns the stock table for a range without any price
// computation. It shares the engine's validation and snapshot semantics.
func (e *Engine) Availability(ctx context.Context, req domain.SimulationRequest) (*domain.AvailabilityResult, error) {
	if err := validateDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.HotelID) == "" {
		return nil, &domain.ValidationError{Field: "hotel_id", Reason: "must not be empty"}
	}

	snap, err := e.store.Load(ctx, req.HotelID)
	if err != nil {
		return nil, err
	}

	rooms, err := selectRooms(snap, req.RoomTypes)
	if err != nil {
		return nil, err
	}

	dates := dateKeys(req.StartDate, req.EndDate)
	availability := make(map[string]map[string]int, len(rooms))
	for _, room := range rooms {
		perDate := make(map[string]int, len(dates))
		for _, dateKey := range dates {
			if stock, ok := snap.StockFor(room, dateKey); ok {
				perDate[dateKey] = stock
			}
		}
		availability[room] = perDate
	}

	return &domain.AvailabilityResult{
		HotelID:      snap.HotelID,
		StartDate:    req.StartDate.Format(domain.DateLayout),
		EndDate:      req.EndDate.Format(domain.DateLayout),
		Dates:        dates,
		Availability: availability,
	}, nil
}

// PartnerPlans lists the plans of one room type compatible with a
// partner's alias codes.
func (e *Engine) PartnerPlans(ctx context.Context, hotelID, partnerID, roomType string) (*domain.PartnerPlans, error) {
	snap, err := e.store.Load(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	room, ok := snap.Room(roomType)
	if !ok {
		return nil, &domain.NotFoundError{Resource: "room type", Key: roomType}
	}

	p, err := partner.NewResolver(snap.Partners).Resolve(partnerID)
	if err != nil {
		return nil, err
	}

	return &domain.PartnerPlans{
		HotelID:    snap.HotelID,
		Partner:    p.Name,
		RoomType:   room.Name,
		Plans:      partner.CompatiblePlans(p, room.PlanNames()),
		Commission: p.Commission,
		Discount:   p.DefaultDiscount.Percentage,
	}, nil
}

// HotelSummary exposes snapshot metadata for one hotel.
func (e *Engine) HotelSummary(ctx context.Context, hotelID string) (*domain.HotelSummary, error) {
	snap, err := e.store.Load(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	planCount := 0
	for _, room := range snap.Rooms {
		planCount += len(room.Plans)
	}

	return &domain.HotelSummary{
		HotelID:         snap.HotelID,
		SnapshotVersion: snap.Version,
		GeneratedAt:     snap.GeneratedAt,
		ProcessedFrom:   snap.ProcessedFrom,
		ProcessedTo:     snap.ProcessedTo,
		RoomTypeCount:   len(snap.Rooms),
		PlanCount:       planCount,
		PartnerCount:    len(snap.Partners),
	}, nil
}

func validateRequest(req domain.SimulationRequest) error {
	if strings.TrimSpace(req.HotelID) == "" {
		return &domain.ValidationError{Field: "hotel_id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.Partner) == "" {
		return &domain.ValidationError{Field: "partner", Reason: "must not be empty"}
	}
	return validateDates(req.StartDate, req.EndDate)
}

func validateDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return &domain.ValidationError{Field: "date_range", Reason: "start and end dates are required"}
	}
	if start.After(end) {
		return &domain.ValidationError{Field: "date_range", Reason: "start date must not be after end date"}
	}
	return nil
}

// selectRooms resolves the requested room selection against the snapshot.
// nil means every room type; the order always follows display order. An
// explicitly empty selection stays empty.
func selectRooms(snap *domain.Snapshot, requested []string) ([]string, error) {
	if requested == nil {
		return snap.RoomTypeNames(), nil
	}

	wanted := make(map[string]bool, len(requested))
	for _, name := range requested {
		if _, ok := snap.Room(name); !ok {
			return nil, &domain.NotFoundError{Resource: "room type", Key: name}
		}
		wanted[name] = true
	}

	rooms := make([]string, 0, len(wanted))
	for _, name := range snap.RoomTypeNames() {
		if wanted[name] {
			rooms = append(rooms, name)
		}
	}
	return rooms, nil
}

func plansFor(snap *domain.Snapshot, roomType string, selection map[string]domain.PlanChoice) ([]string, error) {
	room, _ := snap.Room(roomType)

	choice, ok := selection[roomType]
	if !ok || choice.Kind == domain.PlanChoiceAll {
		return room.PlanNames(), nil
	}

	if _, ok := room.Plans[choice.Plan]; !ok {
		return nil, &domain.NotFoundError{Resource: "plan", Key: choice.Plan}
	}
	return []string{choice.Plan}, nil
}

// computeRows iterates dates ascending, room types in display order and
// plans in stable order, producing one row per combination.
func computeRows(snap *domain.Snapshot, p *domain.Partner, req domain.SimulationRequest, rooms []string) ([]domain.Row, error) {
	plansByRoom := make(map[string][]string, len(rooms))
	for _, room := range rooms {
		plans, err := plansFor(snap, room, req.PlanSelection)
		if err != nil {
			return nil, err
		}
		plansByRoom[room] = plans
	}

	rows := make([]domain.Row, 0)
	for day := req.StartDate; !day.After(req.EndDate); day = day.AddDate(0, 0, 1) {
		dateKey := day.Format(domain.DateLayout)
		for _, room := range rooms {
			for _, plan := range plansByRoom[room] {
				rows = append(rows, computeRow(snap, p, dateKey, room, plan))
			}
		}
	}
	return rows, nil
}

// computeRow evaluates one date x room x plan combination. Monetary
// values are kept at full precision here; rounding happens in roundRows.
func computeRow(snap *domain.Snapshot, p *domain.Partner, dateKey, roomType, planName string) domain.Row {
	row := domain.Row{
		Date:     dateKey,
		RoomType: roomType,
		PlanName: planName,
	}

	stock, ok := snap.StockFor(roomType, dateKey)
	if !ok || !snap.InProcessedRange(dateKey) {
		row.Flag = domain.FlagOutOfRange
		return row
	}
	row.Stock = &stock
	row.Available = stock > 0

	base, ok := snap.PriceFor(roomType, planName, dateKey)
	if !ok {
		row.Flag = domain.FlagMissingPrice
		return row
	}

	discount := partner.EffectiveDiscount(p, planName)
	discounted := base.Mul(hundred.Sub(discount)).Div(hundred)
	net := discounted.Mul(hundred.Sub(p.Commission)).Div(hundred)

	row.BasePrice = &base
	row.DiscountPercent = discount
	row.DiscountedPrice = &discounted
	row.CommissionPercent = p.Commission
	row.NetToHotel = &net
	return row
}

func dateKeys(start, end time.Time) []string {
	keys := make([]string, 0)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		keys = append(keys, day.Format(domain.DateLayout))
	}
	return keys
}

func roundRows(rows []domain.Row) {
	for i := range rows {
		roundMoneyPtr(rows[i].BasePrice)
		roundMoneyPtr(rows[i].DiscountedPrice)
		roundMoneyPtr(rows[i].NetToHotel)
	}
}

func roundMoneyPtr(d *decimal.Decimal) {
	if d != nil {
		*d = d.RoundBank(2)
	}
}
