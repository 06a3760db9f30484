package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Simplici0/invoice-roi/internal/config"
	"github.com/Simplici0/invoice-roi/internal/db"
	"github.com/Simplici0/invoice-roi/internal/migrations"
	"github.com/Simplici0/invoice-roi/internal/roi"
	"github.com/Simplici0/invoice-roi/internal/storage"
)

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, config.DriverSQLite); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	repo := storage.NewSQLStore(database, config.DriverSQLite)

	for i := 0; i < 5; i++ {
		stats, err := Run(ctx, repo)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != len(demoScenarios) {
				t.Fatalf("expected %d inserts in first run, got %d", len(demoScenarios), stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 || stats.Skipped != len(demoScenarios) {
			t.Fatalf("expected 0 inserts in iteration %d, got %+v", i, stats)
		}
	}

	scenarios, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list scenarios: %v", err)
	}
	if len(scenarios) != len(demoScenarios) {
		t.Fatalf("expected %d scenarios, got %d", len(demoScenarios), len(scenarios))
	}
}

func TestDemoScenariosAreValid(t *testing.T) {
	for _, demo := range demoScenarios {
		if err := demo.inputs.Validate(); err != nil {
			t.Fatalf("demo scenario %q is invalid: %v", demo.name, err)
		}
		if res := roi.Calculate(demo.inputs); res.PaybackMonths == nil {
			t.Fatalf("demo scenario %q never pays back", demo.name)
		}
	}
}
