package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/Simplici0/invoice-roi/internal/roi"
	"github.com/Simplici0/invoice-roi/internal/storage"
)

type demoScenario struct {
	name   string
	inputs roi.Inputs
}

var demoScenarios = []demoScenario{
	{
		name: "Example: mid-size AP team",
		inputs: roi.Inputs{
			MonthlyInvoiceVolume:      1000,
			NumAPStaff:                3,
			AvgHoursPerInvoice:        0.5,
			HourlyWage:                25,
			ErrorRateManual:           5,
			ErrorCost:                 50,
			TimeHorizonMonths:         12,
			OneTimeImplementationCost: 5000,
		},
	},
	{
		name: "Example: small team, low volume",
		inputs: roi.Inputs{
			MonthlyInvoiceVolume:      150,
			NumAPStaff:                1,
			AvgHoursPerInvoice:        0.25,
			HourlyWage:                22,
			ErrorRateManual:           2,
			ErrorCost:                 30,
			TimeHorizonMonths:         24,
			OneTimeImplementationCost: 2500,
		},
	},
	{
		name: "Example: error-prone shared services",
		inputs: roi.Inputs{
			MonthlyInvoiceVolume:      12000,
			NumAPStaff:                12,
			AvgHoursPerInvoice:        0.2,
			HourlyWage:                30,
			ErrorRateManual:           60,
			ErrorCost:                 120,
			TimeHorizonMonths:         36,
			OneTimeImplementationCost: 150000,
		},
	},
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Skipped int
}

// Run stores the demo scenarios that are not present yet. It is idempotent:
// scenarios are matched by name.
func Run(ctx context.Context, repo storage.Repository) (Stats, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list existing scenarios: %w", err)
	}

	names := make(map[string]bool, len(existing))
	for _, sc := range existing {
		names[sc.Name] = true
	}

	stats := Stats{}
	for _, demo := range demoScenarios {
		if names[demo.name] {
			stats.Skipped++
			continue
		}

		if err := demo.inputs.Validate(); err != nil {
			return stats, fmt.Errorf("demo scenario %q: %w", demo.name, err)
		}

		_, err := repo.Create(ctx, demo.name, demo.inputs, roi.Calculate(demo.inputs))
		if errors.Is(err, storage.ErrDuplicateName) {
			// Created concurrently by another instance.
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("insert demo scenario %q: %w", demo.name, err)
		}
		stats.Inserts++
	}

	return stats, nil
}
