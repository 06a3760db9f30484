package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Simplici0/invoice-roi/internal/roi"
)

const notAvailable = "N/A"

// Formatter renders labels and figures for one locale. It is safe for
// concurrent use.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter parses a BCP 47 tag such as "en-US" or "de-DE".
func NewFormatter(locale string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse report locale %q: %w", locale, err)
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
	}, nil
}

// FormatLabel turns a snake_case key into a title-cased label.
func (f *Formatter) FormatLabel(key string) string {
	// Casers keep state between calls and cannot be shared.
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(key, "_", " "))
}

// FormatNumber prints magnitudes of at least one with grouping and up to two
// fraction digits, smaller magnitudes with exactly four. Nil and non-finite
// values print as N/A.
func (f *Formatter) FormatNumber(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return notAvailable
	}
	if math.Abs(*v) >= 1 {
		return f.grouped(*v)
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

// FormatSummaryNumber is the mail body variant: always grouped with up to
// two fraction digits.
func (f *Formatter) FormatSummaryNumber(v *float64) string {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return notAvailable
	}
	return f.grouped(*v)
}

func (f *Formatter) grouped(v float64) string {
	return f.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Summary lists every result as "Label: value", one per line.
func (f *Formatter) Summary(res roi.Results) string {
	fields := resultFields(res)
	lines := make([]string, 0, len(fields))
	for _, fld := range fields {
		lines = append(lines, f.FormatLabel(fld.key)+": "+f.FormatSummaryNumber(fld.value))
	}
	return strings.Join(lines, "\n")
}

type field struct {
	key   string
	value *float64
}

func inputFields(in roi.Inputs) []field {
	return []field{
		{"monthly_invoice_volume", &in.MonthlyInvoiceVolume},
		{"num_ap_staff", &in.NumAPStaff},
		{"avg_hours_per_invoice", &in.AvgHoursPerInvoice},
		{"hourly_wage", &in.HourlyWage},
		{"error_rate_manual", &in.ErrorRateManual},
		{"error_cost", &in.ErrorCost},
		{"time_horizon_months", &in.TimeHorizonMonths},
		{"one_time_implementation_cost", &in.OneTimeImplementationCost},
	}
}

func resultFields(res roi.Results) []field {
	return []field{
		{"monthly_savings", &res.MonthlySavings},
		{"payback_months", res.PaybackMonths},
		{"roi_percentage", &res.ROIPercentage},
		{"cumulative_savings", &res.CumulativeSavings},
		{"net_savings", &res.NetSavings},
		{"error_savings", &res.ErrorSavings},
		{"labor_cost_saved", &res.LaborCostSaved},
		{"automation_cost", &res.AutomationCost},
		{"labor_cost_manual", &res.LaborCostManual},
		{"baseline_error_cost", &res.BaselineErrorCost},
		{"automation_error_cost", &res.AutomationErrorCost},
		{"bias_multiplier", &res.BiasMultiplier},
	}
}
