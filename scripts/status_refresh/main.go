// Command status_refresh rewrites stored assessment statuses that have
// drifted from their due dates. Statuses are computed when a record is
// written, so a nightly run keeps listings accurate without putting the
// classification on the read path.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/edutrack/edutrack-api/internal/models"
)

type refreshResult struct {
	ID     int64
	From   models.AssessmentStatus
	To     models.AssessmentStatus
	DryRun bool
}

func main() {
	var (
		dsn     string
		dryRun  bool
		timeout time.Duration
	)

	flag.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.BoolVar(&dryRun, "dry-run", false, "Report stale statuses without writing")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall run timeout")
	flag.Parse()

	if dsn == "" {
		log.Fatal("no connection string: pass -dsn or set DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	results, err := refresh(ctx, db, dryRun, time.Now())
	if err != nil {
		log.Fatalf("refresh failed: %v", err)
	}

	printReport(results, dryRun)
}

func refresh(ctx context.Context, db *sqlx.DB, dryRun bool, today time.Time) ([]refreshResult, error) {
	var rows []models.Assessment
	if err := db.SelectContext(ctx, &rows, `SELECT id, student_id, title, subject, due_date, status, type, created_at, updated_at FROM assessments`); err != nil {
		return nil, fmt.Errorf("load assessments: %w", err)
	}

	var results []refreshResult
	for _, a := range rows {
		current := models.ClassifyStatus(a.DueDate, today)
		if current == a.Status {
			continue
		}
		res := refreshResult{ID: a.ID, From: a.Status, To: current, DryRun: dryRun}
		if !dryRun {
			if _, err := db.ExecContext(ctx, `UPDATE assessments SET status = $1, updated_at = $2 WHERE id = $3`, current, time.Now().UTC(), a.ID); err != nil {
				return nil, fmt.Errorf("update assessment %d: %w", a.ID, err)
			}
		}
		results = append(results, res)
	}
	return results, nil
}

func printReport(results []refreshResult, dryRun bool) {
	fmt.Println("Status Refresh Report")
	fmt.Println("=====================")
	for _, res := range results {
		fmt.Printf("  assessment %d: %s -> %s\n", res.ID, res.From, res.To)
	}
	verb := "updated"
	if dryRun {
		verb = "stale (dry run)"
	}
	fmt.Printf("%d %s\n", len(results), verb)
}
