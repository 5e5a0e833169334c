package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hotelrm/backend-go/internal/domain"
	"github.com/hotelrm/backend-go/internal/importer"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const (
	dataSuffix   = "_data.json"
	configSuffix = "_config.json"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing {hotel}_data.json / {hotel}_config.json pairs",
		Value:   "./data/hotels",
		EnvVars: []string{"SEED_DATA_DIR"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Initialize the schema and seed hotel snapshots",
		Commands: []*cli.Command{
			{
				Name:  "schema",
				Usage: "Apply the database schema",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{
						Name:  "schema-file",
						Usage: "Path to the schema SQL file",
						Value: "./migrations/schema.sql",
					},
				},
				Action: applySchema,
			},
			{
				Name:  "snapshots",
				Usage: "Seed hotel snapshots from local document pairs",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newDataDirFlag(),
				},
				Action: seedSnapshots,
			},
			{
				Name:  "all",
				Usage: "Apply the schema, then seed snapshots",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newDataDirFlag(),
					&cli.StringFlag{
						Name:  "schema-file",
						Usage: "Path to the schema SQL file",
						Value: "./migrations/schema.sql",
					},
				},
				Action: func(c *cli.Context) error {
					if err := applySchema(c); err != nil {
						return fmt.Errorf("error applying schema: %w", err)
					}
					if err := seedSnapshots(c); err != nil {
						return fmt.Errorf("error seeding snapshots: %w", err)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func applySchema(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	schemaPath := c.String("schema-file")
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file %s: %w", schemaPath, err)
	}

	log.Printf("Applying schema from %s\n", schemaPath)
	if _, err := db.ExecContext(c.Context, string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Println("Schema applied successfully!")
	return nil
}

func seedSnapshots(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	dataDir := c.String("data-dir")
	hotelIDs, err := listDocumentPairs(dataDir)
	if err != nil {
		return err
	}
	if len(hotelIDs) == 0 {
		log.Printf("No document pairs found in %s\n", dataDir)
		return nil
	}

	log.Println("Starting snapshot seeding...")
	for _, hotelID := range hotelIDs {
		dataJSON, err := os.ReadFile(filepath.Join(dataDir, hotelID+dataSuffix))
		if err != nil {
			return fmt.Errorf("failed to read data document for %s: %w", hotelID, err)
		}
		configJSON, err := os.ReadFile(filepath.Join(dataDir, hotelID+configSuffix))
		if err != nil {
			return fmt.Errorf("failed to read config document for %s: %w", hotelID, err)
		}

		snap, err := importer.BuildSnapshot(hotelID, dataJSON, configJSON)
		if err != nil {
			return fmt.Errorf("failed to build snapshot for %s: %w", hotelID, err)
		}

		if err := insertSnapshot(c.Context, db, snap); err != nil {
			return fmt.Errorf("failed to seed snapshot for %s: %w", hotelID, err)
		}
		log.Printf("Seeded %s: %d room types, %d partners (%s..%s)\n",
			hotelID, len(snap.Rooms), len(snap.Partners), snap.ProcessedFrom, snap.ProcessedTo)
	}

	log.Println("Snapshot seeding completed successfully!")
	return nil
}

// listDocumentPairs returns the hotels with both halves of the document
// pair present, sorted for deterministic seeding order.
func listDocumentPairs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir %s: %w", dir, err)
	}

	withData := make(map[string]bool)
	withConfig := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, dataSuffix):
			withData[strings.TrimSuffix(name, dataSuffix)] = true
		case strings.HasSuffix(name, configSuffix):
			withConfig[strings.TrimSuffix(name, configSuffix)] = true
		}
	}

	var hotelIDs []string
	for hotelID := range withData {
		if withConfig[hotelID] {
			hotelIDs = append(hotelIDs, hotelID)
		} else {
			log.Printf("Skipping %s: config document missing\n", hotelID)
		}
	}
	sort.Strings(hotelIDs)
	return hotelIDs, nil
}

// insertSnapshot replaces one hotel's snapshot inside a transaction,
// the same wholesale shape the importer writes at runtime.
func insertSnapshot(ctx context.Context, db *sql.DB, snap *domain.Snapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"partners", "room_types", "hotels"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE hotel_id = $1", table), snap.HotelID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	displayOrder, err := json.Marshal(snap.DisplayOrder)
	if err != nil {
		return fmt.Errorf("failed to encode display order: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO hotels (hotel_id, snapshot_version, generated_at, processed_from, processed_to, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.HotelID, snap.Version, snap.GeneratedAt,
		nullIfEmpty(snap.ProcessedFrom), nullIfEmpty(snap.ProcessedTo), displayOrder); err != nil {
		return fmt.Errorf("failed to insert hotel: %w", err)
	}

	for _, room := range snap.Rooms {
		stock, err := json.Marshal(room.Stock)
		if err != nil {
			return fmt.Errorf("failed to encode stock for %s: %w", room.Name, err)
		}
		plans, err := json.Marshal(room.Plans)
		if err != nil {
			return fmt.Errorf("failed to encode plans for %s: %w", room.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO room_types (hotel_id, name, stock, plans)
			VALUES ($1, $2, $3, $4)`,
			snap.HotelID, room.Name, stock, plans); err != nil {
			return fmt.Errorf("failed to insert room type %s: %w", room.Name, err)
		}
	}

	for _, p := range snap.Partners {
		codes, err := json.Marshal(p.Codes)
		if err != nil {
			return fmt.Errorf("failed to encode codes for %s: %w", p.Name, err)
		}
		exclusions, err := json.Marshal(p.DefaultDiscount.Exclusions)
		if err != nil {
			return fmt.Errorf("failed to encode exclusions for %s: %w", p.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO partners (hotel_id, name, codes, commission, discount_percentage, discount_exclusions)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			snap.HotelID, p.Name, codes, p.Commission, p.DefaultDiscount.Percentage, exclusions); err != nil {
			return fmt.Errorf("failed to insert partner %s: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
