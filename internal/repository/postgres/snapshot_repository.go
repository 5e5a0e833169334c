package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// SnapshotRepository persists hotel snapshots wholesale. Calendars and
// partner configuration are stored as JSON documents, mirroring the
// shape the upload collaborator produces; a snapshot is replaced inside
// one transaction so readers never load a partial state.
type SnapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

type hotelRow struct {
	HotelID       string         `db:"hotel_id"`
	Version       string         `db:"snapshot_version"`
	GeneratedAt   time.Time      `db:"generated_at"`
	ProcessedFrom sql.NullString `db:"processed_from"`
	ProcessedTo   sql.NullString `db:"processed_to"`
	DisplayOrder  []byte         `db:"display_order"`
}

type roomTypeRow struct {
	Name  string `db:"name"`
	Stock []byte `db:"stock"`
	Plans []byte `db:"plans"`
}

type partnerRow struct {
	Name       string          `db:"name"`
	Codes      []byte          `db:"codes"`
	Commission decimal.Decimal `db:"commission"`
	Discount   decimal.Decimal `db:"discount_percentage"`
	Exclusions []byte          `db:"discount_exclusions"`
}

// LoadSnapshot loads a hotel's complete snapshot.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, hotelID string) (*domain.Snapshot, error) {
	var hotel hotelRow
	err := r.db.GetContext(ctx, &hotel, `
		SELECT hotel_id, snapshot_version, generated_at, processed_from, processed_to, display_order
		FROM hotels
		WHERE hotel_id = $1`, hotelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Resource: "hotel", Key: hotelID}
	}
	if err != nil {
		return nil, fmt.Errorf("load hotel %s: %w", hotelID, err)
	}

	snap := &domain.Snapshot{
		HotelID:       hotel.HotelID,
		Version:       hotel.Version,
		GeneratedAt:   hotel.GeneratedAt,
		ProcessedFrom: hotel.ProcessedFrom.String,
		ProcessedTo:   hotel.ProcessedTo.String,
		Rooms:         make(map[string]*domain.RoomType),
	}
	if len(hotel.DisplayOrder) > 0 {
		if err := json.Unmarshal(hotel.DisplayOrder, &snap.DisplayOrder); err != nil {
			return nil, fmt.Errorf("decode display order for %s: %w", hotelID, err)
		}
	}

	var rooms []roomTypeRow
	if err := r.db.SelectContext(ctx, &rooms, `
		SELECT name, stock, plans
		FROM room_types
		WHERE hotel_id = $1`, hotelID); err != nil {
		return nil, fmt.Errorf("load room types for %s: %w", hotelID, err)
	}
	for _, row := range rooms {
		room := &domain.RoomType{Name: row.Name}
		if len(row.Stock) > 0 {
			if err := json.Unmarshal(row.Stock, &room.Stock); err != nil {
				return nil, fmt.Errorf("decode stock calendar for %s/%s: %w", hotelID, row.Name, err)
			}
		}
		if len(row.Plans) > 0 {
			if err := json.Unmarshal(row.Plans, &room.Plans); err != nil {
				return nil, fmt.Errorf("decode price calendars for %s/%s: %w", hotelID, row.Name, err)
			}
		}
		snap.Rooms[room.Name] = room
	}

	var partners []partnerRow
	if err := r.db.SelectContext(ctx, &partners, `
		SELECT name, codes, commission, discount_percentage, discount_exclusions
		FROM partners
		WHERE hotel_id = $1
		ORDER BY name`, hotelID); err != nil {
		return nil, fmt.Errorf("load partners for %s: %w", hotelID, err)
	}
	for _, row := range partners {
		p := &domain.Partner{
			Name:       row.Name,
			Commission: row.Commission,
			DefaultDiscount: domain.DiscountRule{
				Percentage: row.Discount,
			},
		}
		if len(row.Codes) > 0 {
			if err := json.Unmarshal(row.Codes, &p.Codes); err != nil {
				return nil, fmt.Errorf("decode partner codes for %s/%s: %w", hotelID, row.Name, err)
			}
		}
		if len(row.Exclusions) > 0 {
			if err := json.Unmarshal(row.Exclusions, &p.DefaultDiscount.Exclusions); err != nil {
				return nil, fmt.Errorf("decode partner exclusions for %s/%s: %w", hotelID, row.Name, err)
			}
		}
		snap.Partners = append(snap.Partners, p)
	}

	return snap, nil
}

// ReplaceSnapshot replaces a hotel's snapshot wholesale within one
// transaction.
func (r *SnapshotRepository) ReplaceSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"partners", "room_types", "hotels"} {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE hotel_id = $1", table), snap.HotelID); err != nil {
				return fmt.Errorf("clear %s for %s: %w", table, snap.HotelID, err)
			}
		}

		displayOrder, err := json.Marshal(snap.DisplayOrder)
		if err != nil {
			return fmt.Errorf("encode display order: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO hotels (hotel_id, snapshot_version, generated_at, processed_from, processed_to, display_order)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			snap.HotelID, snap.Version, snap.GeneratedAt,
			nullIfEmpty(snap.ProcessedFrom), nullIfEmpty(snap.ProcessedTo), displayOrder); err != nil {
			return fmt.Errorf("insert hotel %s: %w", snap.HotelID, err)
		}

		for _, room := range snap.Rooms {
			stock, err := json.Marshal(room.Stock)
			if err != nil {
				return fmt.Errorf("encode stock calendar for %s: %w", room.Name, err)
			}
			plans, err := json.Marshal(room.Plans)
			if err != nil {
				return fmt.Errorf("encode price calendars for %s: %w", room.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO room_types (hotel_id, name, stock, plans)
				VALUES ($1, $2, $3, $4)`,
				snap.HotelID, room.Name, stock, plans); err != nil {
				return fmt.Errorf("insert room type %s: %w", room.Name, err)
			}
		}

		for _, p := range snap.Partners {
			codes, err := json.Marshal(p.Codes)
			if err != nil {
				return fmt.Errorf("encode codes for partner %s: %w", p.Name, err)
			}
			exclusions, err := json.Marshal(p.DefaultDiscount.Exclusions)
			if err != nil {
				return fmt.Errorf("encode exclusions for partner %s: %w", p.Name, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO partners (hotel_id, name, codes, commission, discount_percentage, discount_exclusions)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				snap.HotelID, p.Name, codes, p.Commission, p.DefaultDiscount.Percentage, exclusions); err != nil {
				return fmt.Errorf("insert partner %s: %w", p.Name, err)
			}
		}

		return nil
	})
}

// ListHotelIDs returns the identifiers of all persisted hotels.
func (r *SnapshotRepository) ListHotelIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT hotel_id FROM hotels ORDER BY hotel_id`); err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	return ids, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
