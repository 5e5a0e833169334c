package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PlanChoiceKind tags the two ways a room's plans can be selected.
type PlanChoiceKind int

const (
	// PlanChoiceAll compares every plan of the room type.
	PlanChoiceAll PlanChoiceKind = iota
	// PlanChoiceExplicit simulates a single named plan.
	PlanChoiceExplicit
)

// PlanChoice selects which plans of a room type participate in a
// simulation. It is a tagged choice, not a nullable plan name, so both
// paths stay explicit. Wire format: {"all": true} or {"plan": "<name>"}.
type PlanChoice struct {
	Kind PlanChoiceKind
	Plan string
}

// AllPlans selects every plan of the room type.
func AllPlans() PlanChoice { return PlanChoice{Kind: PlanChoiceAll} }

// ExplicitPlan selects one named plan.
func ExplicitPlan(name string) PlanChoice {
	return PlanChoice{Kind: PlanChoiceExplicit, Plan: name}
}

type planChoiceJSON struct {
	All  bool   `json:"all,omitempty"`
	Plan string `json:"plan,omitempty"`
}

func (c PlanChoice) MarshalJSON() ([]byte, error) {
	if c.Kind == PlanChoiceAll {
		return json.Marshal(planChoiceJSON{All: true})
	}
	return json.Marshal(planChoiceJSON{Plan: c.Plan})
}

func (c *PlanChoice) UnmarshalJSON(data []byte) error {
	var raw planChoiceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.All && raw.Plan != "":
		return fmt.Errorf("plan selection cannot be both explicit and all-plans")
	case raw.All:
		*c = AllPlans()
	case raw.Plan != "":
		*c = ExplicitPlan(raw.Plan)
	default:
		return fmt.Errorf("plan selection requires either \"plan\" or \"all\"")
	}
	return nil
}

// SimulationRequest describes one tariff simulation. RoomTypes nil means
// all room types in display order; an explicitly empty slice is a valid
// empty selection. Dates are inclusive on both ends.
type SimulationRequest struct {
	HotelID       string
	Partner       string
	StartDate     time.Time
	EndDate       time.Time
	RoomTypes     []string
	PlanSelection map[string]PlanChoice
}

// RowFlag marks a row-level data gap. Gaps never abort the iteration;
// flagged rows stay in the output so callers can audit completeness.
type RowFlag string

const (
	FlagNone RowFlag = ""
	// FlagOutOfRange marks a date with no stock data or outside the
	// hotel's processed range. The row is excluded from aggregation.
	FlagOutOfRange RowFlag = "out_of_range"
	// FlagMissingPrice marks a date whose plan has no price. Discount and
	// commission computation is skipped for the row.
	FlagMissingPrice RowFlag = "missing_price_data"
)

// Row is one computed date x room type x plan combination. Monetary
// pointers are nil when the row carries a data gap.
type Row struct {
	Date              string           `json:"date"`
	RoomType          string           `json:"room_type"`
	PlanName          string           `json:"plan_name"`
	BasePrice         *decimal.Decimal `json:"base_price"`
	DiscountPercent   decimal.Decimal  `json:"discount_percent"`
	DiscountedPrice   *decimal.Decimal `json:"discounted_price"`
	CommissionPercent decimal.Decimal  `json:"commission_percent"`
	NetToHotel        *decimal.Decimal `json:"net_to_hotel"`
	Stock             *int             `json:"stock"`
	Available         bool             `json:"available"`
	Flag              RowFlag          `json:"flag,omitempty"`
}

// Stats summarizes a set of rows. Price statistics cover priced rows only
// (no data gap); the occupancy-feasible count is over distinct date/room
// pairs with stock > 0.
type Stats struct {
	AvailableRows     int             `json:"available_rows"`
	PricedRows        int             `json:"priced_rows"`
	OccupancyFeasible int             `json:"occupancy_feasible"`
	TotalDiscounted   decimal.Decimal `json:"total_discounted_price"`
	AvgDiscounted     decimal.Decimal `json:"avg_discounted_price"`
	TotalNet          decimal.Decimal `json:"total_net_to_hotel"`
	AvgNet            decimal.Decimal `json:"avg_net_to_hotel"`
	MinDiscounted     decimal.Decimal `json:"min_discounted_price"`
	MaxDiscounted     decimal.Decimal `json:"max_discounted_price"`
}

// Summary holds per-room-type and overall statistics.
type Summary struct {
	PerRoomType map[string]Stats `json:"per_room_type"`
	Overall     Stats            `json:"overall"`
}

// SimulationResult is the engine's complete output for one request.
type SimulationResult struct {
	HotelID         string  `json:"hotel_id"`
	Partner         string  `json:"partner"`
	SnapshotVersion string  `json:"snapshot_version"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Rows            []Row   `json:"rows"`
	Summary         Summary `json:"summary"`
}

// AvailabilityResult is the per-room, per-date stock table for a range.
type AvailabilityResult struct {
	HotelID      string                    `json:"hotel_id"`
	StartDate    string                    `json:"start_date"`
	EndDate      string                    `json:"end_date"`
	Dates        []string                  `json:"dates"`
	Availability map[string]map[string]int `json:"availability"`
}

// PartnerPlans lists the plans of a room type compatible with a partner's
// alias codes.
type PartnerPlans struct {
	HotelID    string          `json:"hotel_id"`
	Partner    string          `json:"partner"`
	RoomType   string          `json:"room_type"`
	Plans      []string        `json:"plans"`
	Commission decimal.Decimal `json:"partner_commission"`
	Discount   decimal.Decimal `json:"partner_discount"`
}

// HotelSummary is the snapshot metadata exposed to the serving layer.
type HotelSummary struct {
	HotelID         string    `json:"hotel_id"`
	SnapshotVersion string    `json:"snapshot_version"`
	GeneratedAt     time.Time `json:"generated_at"`
	ProcessedFrom   string    `json:"processed_from"`
	ProcessedTo     string    `json:"processed_to"`
	RoomTypeCount   int       `json:"room_type_count"`
	PlanCount       int       `json:"plan_count"`
	PartnerCount    int       `json:"partner_count"`
}
