package importer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/shopspring/decimal"
)

// DataDocument is the per-hotel planning document produced by the upload
// collaborator: stock and price calendars per room type.
type DataDocument struct {
	ReportGeneratedAt string                  `json:"report_generated_at"`
	Rooms             map[string]RoomDocument `json:"rooms"`
}

type RoomDocument struct {
	Stock map[string]int                        `json:"stock"`
	Plans map[string]map[string]decimal.Decimal `json:"plans"`
}

// ConfigDocument is the per-hotel commercial configuration: partners and
// room display order.
type ConfigDocument struct {
	DisplayOrder []string                   `json:"display_order"`
	Partners     map[string]PartnerDocument `json:"partners"`
}

type PartnerDocument struct {
	Codes           []string         `json:"codes"`
	Commission      decimal.Decimal  `json:"commission"`
	DefaultDiscount DiscountDocument `json:"defaultDiscount"`
}

type DiscountDocument struct {
	Percentage decimal.Decimal `json:"percentage"`
	Exclusions []string        `json:"excludePlansContaining"`
}

// BuildSnapshot assembles and validates an immutable snapshot from one
// hotel's document pair. The processed range is derived from the union
// of all calendar dates. Any rejection carries domain.ErrValidation.
func BuildSnapshot(hotelID string, dataJSON, configJSON []byte) (*domain.Snapshot, error) {
	snap, err := assembleSnapshot(hotelID, dataJSON, configJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return snap, nil
}

func assembleSnapshot(hotelID string, dataJSON, configJSON []byte) (*domain.Snapshot, error) {
	var data DataDocument
	if err := json.Unmarshal(dataJSON, &data); err != nil {
		return nil, fmt.Errorf("decode data document for %s: %w", hotelID, err)
	}
	var config ConfigDocument
	if err := json.Unmarshal(configJSON, &config); err != nil {
		return nil, fmt.Errorf("decode config document for %s: %w", hotelID, err)
	}

	generatedAt, err := parseGeneratedAt(data.ReportGeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("hotel %s: %w", hotelID, err)
	}

	snap := &domain.Snapshot{
		HotelID:      hotelID,
		Version:      uuid.NewString(),
		GeneratedAt:  generatedAt,
		DisplayOrder: config.DisplayOrder,
		Rooms:        make(map[string]*domain.RoomType, len(data.Rooms)),
	}

	var minDate, maxDate string
	observe := func(dateKey string) error {
		if _, err := time.Parse(domain.DateLayout, dateKey); err != nil {
			return fmt.Errorf("invalid calendar date %q: %w", dateKey, err)
		}
		if minDate == "" || dateKey < minDate {
			minDate = dateKey
		}
		if maxDate == "" || dateKey > maxDate {
			maxDate = dateKey
		}
		return nil
	}

	for name, room := range data.Rooms {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("hotel %s: room type name must not be empty", hotelID)
		}
		rt := &domain.RoomType{
			Name:  name,
			Stock: make(map[string]int, len(room.Stock)),
			Plans: make(map[string]domain.PriceCalendar, len(room.Plans)),
		}
		for dateKey, units := range room.Stock {
			if err := observe(dateKey); err != nil {
				return nil, fmt.Errorf("hotel %s, room %s: %w", hotelID, name, err)
			}
			if units < 0 {
				return nil, fmt.Errorf("hotel %s, room %s: negative stock on %s", hotelID, name, dateKey)
			}
			rt.Stock[dateKey] = units
		}
		for planName, prices := range room.Plans {
			if strings.TrimSpace(planName) == "" {
				return nil, fmt.Errorf("hotel %s, room %s: plan name must not be empty", hotelID, name)
			}
			calendar := make(domain.PriceCalendar, len(prices))
			for dateKey, price := range prices {
				if err := observe(dateKey); err != nil {
					return nil, fmt.Errorf("hotel %s, room %s, plan %s: %w", hotelID, name, planName, err)
				}
				if price.IsNegative() {
					return nil, fmt.Errorf("hotel %s, room %s, plan %s: negative price on %s", hotelID, name, planName, dateKey)
				}
				calendar[dateKey] = price
			}
			rt.Plans[planName] = calendar
		}
		snap.Rooms[name] = rt
	}
	snap.ProcessedFrom = minDate
	snap.ProcessedTo = maxDate

	seenIdentifiers := make(map[string]string)
	claim := func(identifier, partnerName string) error {
		key := strings.ToLower(strings.TrimSpace(identifier))
		if key == "" {
			return nil
		}
		if owner, taken := seenIdentifiers[key]; taken && owner != partnerName {
			return fmt.Errorf("hotel %s: identifier %q claimed by both %q and %q", hotelID, identifier, owner, partnerName)
		}
		seenIdentifiers[key] = partnerName
		return nil
	}

	for name, p := range config.Partners {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("hotel %s: partner name must not be empty", hotelID)
		}
		if err := validatePercentage(p.Commission, "commission", name); err != nil {
			return nil, fmt.Errorf("hotel %s: %w", hotelID, err)
		}
		if err := validatePercentage(p.DefaultDiscount.Percentage, "discount", name); err != nil {
			return nil, fmt.Errorf("hotel %s: %w", hotelID, err)
		}
		if err := claim(name, name); err != nil {
			return nil, err
		}
		for _, code := range p.Codes {
			if err := claim(code, name); err != nil {
				return nil, err
			}
		}
		snap.Partners = append(snap.Partners, &domain.Partner{
			Name:       name,
			Codes:      p.Codes,
			Commission: p.Commission,
			DefaultDiscount: domain.DiscountRule{
				Percentage: p.DefaultDiscount.Percentage,
				Exclusions: p.DefaultDiscount.Exclusions,
			},
		})
	}

	return snap, nil
}

func validatePercentage(v decimal.Decimal, field, partnerName string) error {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("partner %s: %s %s outside [0,100]", partnerName, field, v.String())
	}
	return nil
}

// parseGeneratedAt reads the report timestamp of a data document. An
// absent timestamp yields the zero time so the snapshot stays
// deterministic; a present but unparseable one rejects the document.
func parseGeneratedAt(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", domain.DateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable report_generated_at %q", raw)
}
