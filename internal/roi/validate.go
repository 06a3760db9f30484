package roi

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ValidationError lists every field that failed validation, in field
// declaration order.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid roi inputs: " + strings.Join(e.Violations, "; ")
}

type fieldRule struct {
	key       string
	min, max  float64
	allowZero bool
	optional  bool
	message   string
	field     func(*Inputs) *float64
}

var fieldRules = []fieldRule{
	{
		key: "monthly_invoice_volume", min: 1, max: 100_000,
		message: "monthly_invoice_volume must be between 1 and 100,000",
		field:   func(in *Inputs) *float64 { return &in.MonthlyInvoiceVolume },
	},
	{
		key: "num_ap_staff", min: 1, max: 50,
		message: "num_ap_staff must be between 1 and 50",
		field:   func(in *Inputs) *float64 { return &in.NumAPStaff },
	},
	{
		key: "avg_hours_per_invoice", min: 0.01, max: 10,
		message: "avg_hours_per_invoice must be between 0.01 and 10",
		field:   func(in *Inputs) *float64 { return &in.AvgHoursPerInvoice },
	},
	{
		key: "hourly_wage", min: 1, max: 500,
		message: "hourly_wage must be between 1 and 500",
		field:   func(in *Inputs) *float64 { return &in.HourlyWage },
	},
	{
		key: "error_rate_manual", min: 0, max: 100, allowZero: true,
		message: "error_rate_manual must be between 0 and 100",
		field:   func(in *Inputs) *float64 { return &in.ErrorRateManual },
	},
	{
		// Zero is rejected even though the range starts at 0.
		key: "error_cost", min: 0, max: 100_000,
		message: "error_cost must be greater than 0 and at most 100,000",
		field:   func(in *Inputs) *float64 { return &in.ErrorCost },
	},
	{
		key: "time_horizon_months", min: 1, max: 240,
		message: "time_horizon_months must be between 1 and 240",
		field:   func(in *Inputs) *float64 { return &in.TimeHorizonMonths },
	},
	{
		key: "one_time_implementation_cost", min: 0, max: 10_000_000, allowZero: true, optional: true,
		message: "one_time_implementation_cost must be between 0 and 10,000,000",
		field:   func(in *Inputs) *float64 { return &in.OneTimeImplementationCost },
	},
}

func (r fieldRule) accepts(v float64) bool {
	if math.IsNaN(v) || v < r.min || v > r.max {
		return false
	}
	if v == 0 && !r.allowZero {
		return false
	}
	return true
}

// Validate coerces and checks a raw key/value record, typically decoded from
// JSON. Numeric strings are accepted. All violations are collected; when the
// returned error is nil the Inputs are safe to pass to Calculate.
func Validate(raw map[string]any) (Inputs, error) {
	var in Inputs
	var violations []string

	for _, rule := range fieldRules {
		v, present := raw[rule.key]
		if (!present || v == nil) && rule.optional {
			*rule.field(&in) = 0
			continue
		}

		num, ok := toFloat(v)
		if !ok || !rule.accepts(num) {
			violations = append(violations, rule.message)
			continue
		}
		*rule.field(&in) = num
	}

	if len(violations) > 0 {
		return Inputs{}, &ValidationError{Violations: violations}
	}
	return in, nil
}

// Validate applies the same range policy as the package-level Validate to
// already typed inputs.
func (in Inputs) Validate() error {
	var violations []string
	for _, rule := range fieldRules {
		if !rule.accepts(*rule.field(&in)) {
			violations = append(violations, rule.message)
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
