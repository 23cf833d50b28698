package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"floodmap-api/internal/config"
	"floodmap-api/internal/models"
	"floodmap-api/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	file := flag.String("file", "", "Path to the CSV file to import (latitude,longitude,title)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if *file == "" {
		log.Fatal().Msg("--file flag is required")
	}

	log.Info().Str("file", *file).Msg("starting import")

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open file")
	}
	defer f.Close()

	reports, err := parseCSV(f, time.Now().UTC())
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse CSV")
	}

	log.Info().Int("records", len(reports)).Msg("parsed records")

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if cfg.StoreBackend != config.BackendPostgres {
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("importer only supports the postgres backend")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, repository.Schema); err != nil {
		log.Fatal().Err(err).Msg("cannot create table")
	}

	before, err := countReports(ctx, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot count reports")
	}

	inserted, err := insertReports(ctx, conn, reports)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot insert reports")
	}

	after, err := countReports(ctx, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot count reports")
	}
	if after-before != inserted {
		log.Fatal().Int64("expected", inserted).Int64("got", after-before).Msg("record count mismatch")
	}

	log.Info().Int64("records", inserted).Msg("import complete")
}

// parseCSV reads rows of latitude,longitude[,title] after a header line.
func parseCSV(r io.Reader, createdAt time.Time) ([]models.FloodReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow a missing title column

	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var reports []models.FloodReport
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 columns, got %d", line, len(row))
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude: %s", line, row[0])
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude: %s", line, row[1])
		}

		coord := models.Coordinate{Latitude: lat, Longitude: lon}
		if !coord.Valid() {
			return nil, fmt.Errorf("line %d: coordinate out of range: %v,%v", line, lat, lon)
		}

		report := models.FloodReport{Coordinate: coord, CreatedAt: createdAt}
		if len(row) > 2 {
			report.Title = strings.TrimSpace(row[2])
		}
		reports = append(reports, report)
	}

	return reports, nil
}

func insertReports(ctx context.Context, conn *pgx.Conn, reports []models.FloodReport) (int64, error) {
	// Use CopyFrom for bulk insert
	return conn.CopyFrom(
		ctx,
		pgx.Identifier{"flooding_reports"},
		[]string{"title", "location", "created_at"},
		pgx.CopyFromSlice(len(reports), func(i int) ([]interface{}, error) {
			r := reports[i]
			location := fmt.Sprintf("SRID=4326;POINT(%s %s)", // PostGIS format: lon lat
				strconv.FormatFloat(r.Coordinate.Longitude, 'f', -1, 64),
				strconv.FormatFloat(r.Coordinate.Latitude, 'f', -1, 64))
			return []interface{}{r.Title, location, r.CreatedAt}, nil
		}),
	)
}

func countReports(ctx context.Context, conn *pgx.Conn) (int64, error) {
	var count int64
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM flooding_reports").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
