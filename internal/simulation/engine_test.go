package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/hotelrm/backend-go/internal/snapshot"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// testSnapshot builds the fixture used across the engine tests: two room
// types, two partners, prices over 2025-06-01..2025-06-03 with a stock
// gap and a price gap baked in.
func testSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		HotelID:       "riviera",
		Version:       "v1",
		GeneratedAt:   time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC),
		ProcessedFrom: "2025-06-01",
		ProcessedTo:   "2025-06-30",
		DisplayOrder:  []string{"Suite", "Double"},
		Rooms: map[string]*domain.RoomType{
			"Double": {
				Name: "Double",
				Stock: map[string]int{
					"2025-06-01": 3,
					"2025-06-02": 0,
					"2025-06-03": 2,
				},
				Plans: map[string]domain.PriceCalendar{
					"Flex": {
						"2025-06-01": dec("120"),
						"2025-06-02": dec("150"),
						// no price on 2025-06-03
					},
					"Promo Last Minute": {
						"2025-06-01": dec("100"),
						"2025-06-02": dec("90"),
						"2025-06-03": dec("80"),
					},
				},
			},
			"Suite": {
				Name: "Suite",
				Stock: map[string]int{
					"2025-06-01": 1,
					"2025-06-02": 1,
					"2025-06-03": 1,
				},
				Plans: map[string]domain.PriceCalendar{
					"Flex": {
						"2025-06-01": dec("200"),
						"2025-06-02": dec("220"),
						"2025-06-03": dec("240"),
					},
				},
			},
		},
		Partners: []*domain.Partner{
			{
				Name:       "Booking",
				Codes:      []string{"BOOK", "OTA"},
				Commission: dec("15"),
				DefaultDiscount: domain.DiscountRule{
					Percentage: dec("10"),
					Exclusions: []string{"promo"},
				},
			},
			{
				Name:       "Expedia",
				Codes:      []string{"EXP"},
				Commission: dec("20"),
				DefaultDiscount: domain.DiscountRule{
					Percentage: dec("25"),
				},
			},
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store := snapshot.NewMemoryStore()
	require.NoError(t, store.Replace(context.Background(), testSnapshot()))
	return NewEngine(store)
}

func findRow(t *testing.T, rows []domain.Row, date, room, plan string) domain.Row {
	t.Helper()
	for _, row := range rows {
		if row.Date == date && row.RoomType == room && row.PlanName == plan {
			return row
		}
	}
	t.Fatalf("row %s/%s/%s not found", date, room, plan)
	return domain.Row{}
}

func TestSimulateRowCountAndOrder(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-02"),
	})
	require.NoError(t, err)

	// 2 days x (Suite: 1 plan + Double: 2 plans)
	require.Len(t, result.Rows, 6)

	// Dates ascend, rooms follow display order, plans are alphabetical.
	assert.Equal(t, "Suite", result.Rows[0].RoomType)
	assert.Equal(t, "2025-06-01", result.Rows[0].Date)
	assert.Equal(t, "Double", result.Rows[1].RoomType)
	assert.Equal(t, "Flex", result.Rows[1].PlanName)
	assert.Equal(t, "Promo Last Minute", result.Rows[2].PlanName)
	assert.Equal(t, "2025-06-02", result.Rows[3].Date)

	assert.Equal(t, "riviera", result.HotelID)
	assert.Equal(t, "v1", result.SnapshotVersion)
	assert.Equal(t, "Booking", result.Partner)
}

func TestSimulateDiscountAndCommission(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
	})
	require.NoError(t, err)

	row := findRow(t, result.Rows, "2025-06-01", "Double", "Flex")
	require.NotNil(t, row.BasePrice)
	require.NotNil(t, row.DiscountedPrice)
	require.NotNil(t, row.NetToHotel)
	// 120 - 10% = 108; 108 - 15% commission = 91.80
	assert.True(t, row.BasePrice.Equal(dec("120")), "base %s", row.BasePrice)
	assert.True(t, row.DiscountedPrice.Equal(dec("108")), "discounted %s", row.DiscountedPrice)
	assert.True(t, row.NetToHotel.Equal(dec("91.8")), "net %s", row.NetToHotel)
	assert.True(t, row.DiscountPercent.Equal(dec("10")))
	assert.True(t, row.CommissionPercent.Equal(dec("15")))
	assert.True(t, row.Available)
	require.NotNil(t, row.Stock)
	assert.Equal(t, 3, *row.Stock)
}

func TestSimulateExcludedPlanGetsNoDiscount(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
	})
	require.NoError(t, err)

	// "Promo Last Minute" matches the "promo" exclusion pattern.
	row := findRow(t, result.Rows, "2025-06-01", "Double", "Promo Last Minute")
	assert.True(t, row.DiscountPercent.IsZero())
	assert.True(t, row.DiscountedPrice.Equal(dec("100")))
	// Commission still applies after the (zero) discount.
	assert.True(t, row.NetToHotel.Equal(dec("85")))
}

func TestSimulateZeroStockStillPriced(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-02"),
		EndDate:   day("2025-06-02"),
		RoomTypes: []string{"Double"},
	})
	require.NoError(t, err)

	row := findRow(t, result.Rows, "2025-06-02", "Double", "Flex")
	assert.False(t, row.Available)
	require.NotNil(t, row.Stock)
	assert.Equal(t, 0, *row.Stock)
	assert.Equal(t, domain.FlagNone, row.Flag)
	// 150 - 10% = 135; 135 - 15% = 114.75
	require.NotNil(t, row.NetToHotel)
	assert.True(t, row.NetToHotel.Equal(dec("114.75")))
}

func TestSimulateMissingPriceFlagged(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-03"),
		EndDate:   day("2025-06-03"),
		RoomTypes: []string{"Double"},
	})
	require.NoError(t, err)

	row := findRow(t, result.Rows, "2025-06-03", "Double", "Flex")
	assert.Equal(t, domain.FlagMissingPrice, row.Flag)
	assert.Nil(t, row.BasePrice)
	assert.Nil(t, row.DiscountedPrice)
	assert.Nil(t, row.NetToHotel)
	// Stock data is still present for the date.
	require.NotNil(t, row.Stock)
	assert.Equal(t, 2, *row.Stock)
	assert.True(t, row.Available)
}

func TestSimulateOutOfRangeFlagged(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-03"),
		EndDate:   day("2025-06-04"),
		RoomTypes: []string{"Suite"},
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	// 2025-06-04 has no stock entry: no usable data for the date.
	row := findRow(t, result.Rows, "2025-06-04", "Suite", "Flex")
	assert.Equal(t, domain.FlagOutOfRange, row.Flag)
	assert.Nil(t, row.Stock)
	assert.Nil(t, row.BasePrice)
	assert.False(t, row.Available)

	// Flagged rows never enter the aggregates.
	assert.Equal(t, 1, result.Summary.Overall.PricedRows)
}

func TestSimulateSummaryAggregation(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-02"),
	})
	require.NoError(t, err)

	overall := result.Summary.Overall
	assert.Equal(t, 6, overall.PricedRows)
	// Rows with stock > 0: Suite both days, Double x2 plans on 06-01.
	assert.Equal(t, 4, overall.AvailableRows)
	// Distinct date/room pairs with stock: (06-01,Suite) (06-01,Double) (06-02,Suite).
	assert.Equal(t, 3, overall.OccupancyFeasible)

	// Discounted: 180 + 108 + 100 + 198 + 135 + 90 = 811
	assert.True(t, overall.TotalDiscounted.Equal(dec("811")), "total %s", overall.TotalDiscounted)
	assert.True(t, overall.AvgDiscounted.Equal(dec("135.17")), "avg %s", overall.AvgDiscounted)
	// Net: 153 + 91.8 + 85 + 168.3 + 114.75 + 76.5 = 689.35
	assert.True(t, overall.TotalNet.Equal(dec("689.35")), "net %s", overall.TotalNet)
	assert.True(t, overall.AvgNet.Equal(dec("114.89")), "avg net %s", overall.AvgNet)
	assert.True(t, overall.MinDiscounted.Equal(dec("90")))
	assert.True(t, overall.MaxDiscounted.Equal(dec("198")))

	suite := result.Summary.PerRoomType["Suite"]
	assert.Equal(t, 2, suite.PricedRows)
	assert.True(t, suite.TotalDiscounted.Equal(dec("378")))
	assert.True(t, suite.AvgDiscounted.Equal(dec("189")))
	assert.Equal(t, 2, suite.OccupancyFeasible)
}

func TestSimulateResolvesPartnerAlias(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "ota",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Booking", result.Partner)
}

func TestSimulateUnknownPartner(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "XYZ",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSimulateUnknownHotel(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "nowhere",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSimulateUnknownRoomType(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
		RoomTypes: []string{"Penthouse"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSimulateExplicitEmptyRoomSelection(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
		RoomTypes: []string{},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 0, result.Summary.Overall.PricedRows)
}

func TestSimulateExplicitPlanSelection(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-02"),
		RoomTypes: []string{"Double"},
		PlanSelection: map[string]domain.PlanChoice{
			"Double": domain.ExplicitPlan("Flex"),
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	for _, row := range result.Rows {
		assert.Equal(t, "Flex", row.PlanName)
	}
}

func TestSimulateUnknownPlanSelection(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
		PlanSelection: map[string]domain.PlanChoice{
			"Suite": domain.ExplicitPlan("Nonexistent"),
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// recordingStore fails the test if the engine touches the store, which
// must not happen when the request is rejected by validation.
type recordingStore struct {
	t *testing.T
}

func (s *recordingStore) Load(ctx context.Context, hotelID string) (*domain.Snapshot, error) {
	s.t.Fatal("store must not be touched for an invalid request")
	return nil, nil
}

func (s *recordingStore) Replace(ctx context.Context, snap *domain.Snapshot) error {
	return nil
}

func TestSimulateValidationShortCircuits(t *testing.T) {
	engine := NewEngine(&recordingStore{t: t})

	cases := []struct {
		name string
		req  domain.SimulationRequest
	}{
		{"inverted range", domain.SimulationRequest{
			HotelID: "riviera", Partner: "Booking",
			StartDate: day("2025-06-10"), EndDate: day("2025-06-01"),
		}},
		{"missing dates", domain.SimulationRequest{
			HotelID: "riviera", Partner: "Booking",
		}},
		{"missing hotel", domain.SimulationRequest{
			Partner:   "Booking",
			StartDate: day("2025-06-01"), EndDate: day("2025-06-02"),
		}},
		{"missing partner", domain.SimulationRequest{
			HotelID:   "riviera",
			StartDate: day("2025-06-01"), EndDate: day("2025-06-02"),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Simulate(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrValidation))
		})
	}
}

func TestSimulateSingleDayRange(t *testing.T) {
	engine := newTestEngine(t)

	// Inclusive endpoints: start == end yields one day of rows.
	result, err := engine.Simulate(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Expedia",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-01"),
		RoomTypes: []string{"Suite"},
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	// Expedia has no exclusions: 200 - 25% = 150; 150 - 20% = 120.
	assert.True(t, result.Rows[0].DiscountedPrice.Equal(dec("150")))
	assert.True(t, result.Rows[0].NetToHotel.Equal(dec("120")))
}

func TestSimulateDeterministic(t *testing.T) {
	engine := newTestEngine(t)

	req := domain.SimulationRequest{
		HotelID:   "riviera",
		Partner:   "Booking",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-03"),
	}

	first, err := engine.Simulate(context.Background(), req)
	require.NoError(t, err)
	second, err := engine.Simulate(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, len(first.Rows), len(second.Rows))
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].Date, second.Rows[i].Date)
		assert.Equal(t, first.Rows[i].RoomType, second.Rows[i].RoomType)
		assert.Equal(t, first.Rows[i].PlanName, second.Rows[i].PlanName)
	}
	assert.Equal(t, first.Summary.Overall, second.Summary.Overall)
}

func TestAvailability(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.Availability(context.Background(), domain.SimulationRequest{
		HotelID:   "riviera",
		StartDate: day("2025-06-01"),
		EndDate:   day("2025-06-04"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-06-01", "2025-06-02", "2025-06-03", "2025-06-04"}, result.Dates)
	assert.Equal(t, 3, result.Availability["Double"]["2025-06-01"])
	assert.Equal(t, 0, result.Availability["Double"]["2025-06-02"])
	// Dates without stock data are absent rather than zeroed.
	_, ok := result.Availability["Double"]["2025-06-04"]
	assert.False(t, ok)
}

func TestPartnerPlans(t *testing.T) {
	engine := newTestEngine(t)

	// None of Double's plans contain "book" or "ota": fall back to all.
	result, err := engine.PartnerPlans(context.Background(), "riviera", "Booking", "Double")
	require.NoError(t, err)
	assert.Equal(t, []string{"Flex", "Promo Last Minute"}, result.Plans)
	assert.True(t, result.Commission.Equal(dec("15")))
	assert.True(t, result.Discount.Equal(dec("10")))

	_, err = engine.PartnerPlans(context.Background(), "riviera", "Booking", "Penthouse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestHotelSummary(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.HotelSummary(context.Background(), "riviera")
	require.NoError(t, err)
	assert.Equal(t, "riviera", result.HotelID)
	assert.Equal(t, "v1", result.SnapshotVersion)
	assert.Equal(t, 2, result.RoomTypeCount)
	assert.Equal(t, 3, result.PlanCount)
	assert.Equal(t, 2, result.PartnerCount)
	assert.Equal(t, "2025-06-01", result.ProcessedFrom)
}
