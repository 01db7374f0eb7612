package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/lib/pq"
	"github.com/seacable/atlas-backend/internal/cables"
)

// CLI flags
var (
	dir         = flag.String("dir", "", "Folder of *.geojson files, one record per file (required)")
	dsn         = flag.String("dsn", "", "Postgres DSN (default: env DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
	confirm     = flag.Bool("confirm", false, "Required to write to the database")
	advisoryKey = flag.Int64("advisory-lock", 0, "Optional Postgres advisory lock key (e.g., 424242). 0 = disabled")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *dir == "" {
		fatalf("--dir is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Files are parsed and validated the same way the upload path does it.
	staged := cables.NewMemoryStore()
	records, err := cables.LoadDir(ctx, staged, *dir)
	if err != nil {
		fatalf("load %s: %v", *dir, err)
	}
	if len(records) == 0 {
		fatalf("no *.geojson files in %s", *dir)
	}
	fmt.Printf("Loaded %d records from %s\n", len(records), *dir)

	if *dryRun {
		printPlan(os.Stdout, records)
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	if !*confirm {
		fatalf("Refusing to run without --confirm. Add --dry-run to preview.")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	// Optional advisory lock to avoid concurrent runs
	if *advisoryKey != 0 {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, *advisoryKey); err != nil {
			fatalf("advisory lock: %v", err)
		}
	}

	before, err := countRecords(ctx, tx)
	if err != nil {
		fatalf("pre-count: %v", err)
	}
	fmt.Printf("Before: records=%d\n", before)

	if err := insertAll(ctx, tx, records); err != nil {
		fatalf("insert data: %v", err)
	}

	after, err := countRecords(ctx, tx)
	if err != nil {
		fatalf("post-count: %v", err)
	}
	fmt.Printf("After:  records=%d\n", after)

	if after != before+int64(len(records)) {
		fatalf("sanity check failed: records=%d (expected %d)", after, before+int64(len(records)))
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}
	fmt.Println("Seed complete")
}

func printPlan(w io.Writer, records []cables.CableRecord) {
	features := 0
	for _, r := range records {
		features += r.FeatureCount
	}
	fmt.Fprintln(w, "Plan preview:")
	fmt.Fprintf(w, "  Records to insert: %d\n", len(records))
	fmt.Fprintf(w, "  Features: %d\n", features)
	for _, r := range records {
		fmt.Fprintf(w, "  %-32s %3d features  %s\n", r.Source, r.FeatureCount, strings.Join(r.CableNames, ", "))
	}
	fmt.Fprintln(w, "  Existing records are kept; the store is append-only")
}

func countRecords(ctx context.Context, tx *sql.Tx) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `SELECT count(*) FROM atlas.cable_records`).Scan(&n)
	return n, err
}

func insertAll(ctx context.Context, tx *sql.Tx, records []cables.CableRecord) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO atlas.cable_records
		(record_id, feature_collection, cable_names, feature_count, source, uploaded_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			r.RecordID, r.FeatureCollection, pq.Array([]string(r.CableNames)),
			r.FeatureCount, r.Source, "seed", now,
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", r.Source, err)
		}
	}
	return nil
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
