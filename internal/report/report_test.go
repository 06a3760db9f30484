package report

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/invoice-roi/internal/roi"
)

func exampleInputs() roi.Inputs {
	return roi.Inputs{
		MonthlyInvoiceVolume:      1000,
		NumAPStaff:                3,
		AvgHoursPerInvoice:        0.5,
		HourlyWage:                25,
		ErrorRateManual:           5,
		ErrorCost:                 50,
		TimeHorizonMonths:         12,
		OneTimeImplementationCost: 5000,
	}
}

func ptr(v float64) *float64 { return &v }

func TestFormatLabel(t *testing.T) {
	f, err := NewFormatter("en-US")
	require.NoError(t, err)

	cases := map[string]string{
		"monthly_savings":              "Monthly Savings",
		"num_ap_staff":                 "Num Ap Staff",
		"roi_percentage":               "Roi Percentage",
		"one_time_implementation_cost": "One Time Implementation Cost",
	}
	for in, want := range cases {
		assert.Equal(t, want, f.FormatLabel(in))
	}
}

func TestFormatNumber(t *testing.T) {
	f, err := NewFormatter("en-US")
	require.NoError(t, err)

	cases := []struct {
		in   *float64
		want string
	}{
		{nil, "N/A"},
		{ptr(math.NaN()), "N/A"},
		{ptr(math.Inf(1)), "N/A"},
		{ptr(43725), "43,725"},
		{ptr(524700), "524,700"},
		{ptr(1.1), "1.1"},
		{ptr(1234.5678), "1,234.57"},
		{ptr(-2500), "-2,500"},
		{ptr(5000.0 / 43725.0), "0.1144"},
		{ptr(0), "0.0000"},
		{ptr(-0.5), "-0.5000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, f.FormatNumber(tc.in))
	}
}

func TestFormatNumberFollowsLocale(t *testing.T) {
	f, err := NewFormatter("de-DE")
	require.NoError(t, err)
	assert.Equal(t, "43.725", f.FormatNumber(ptr(43725)))
}

func TestNewFormatterRejectsBadLocale(t *testing.T) {
	_, err := NewFormatter("@@@")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	f, err := NewFormatter("en-US")
	require.NoError(t, err)

	summary := f.Summary(roi.Calculate(exampleInputs()))
	lines := strings.Split(summary, "\n")

	require.Len(t, lines, 12)
	assert.Equal(t, "Monthly Savings: 43,725", lines[0])
	assert.Equal(t, "Payback Months: 0.11", lines[1])
	assert.Equal(t, "Roi Percentage: 10,394", lines[2])
	assert.Equal(t, "Bias Multiplier: 1.1", lines[11])
}

func TestSummaryWithoutPayback(t *testing.T) {
	f, err := NewFormatter("en-US")
	require.NoError(t, err)

	assert.Contains(t, f.Summary(roi.Results{}), "Payback Months: N/A")
}

func TestRenderProducesPDF(t *testing.T) {
	r, err := NewRenderer("en-US")
	require.NoError(t, err)
	r.compress = false
	r.now = func() time.Time { return time.Date(2024, 5, 6, 14, 30, 0, 0, time.UTC) }

	in := exampleInputs()
	out, err := r.Render(in, roi.Calculate(in))
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	body := string(out)
	for _, want := range []string{
		Title,
		"Generated on: May 6, 2024, 2:30:00 PM UTC",
		"Inputs",
		"Results",
		"Monthly Invoice Volume: 1,000",
		"Avg Hours Per Invoice: 0.5000",
		"Monthly Savings: 43,725",
		"Payback Months: 0.1144",
		"Net Savings: 519,700",
	} {
		assert.Contains(t, body, want)
	}
}

func TestRenderWithoutPayback(t *testing.T) {
	r, err := NewRenderer("en-US")
	require.NoError(t, err)
	r.compress = false

	in := roi.Inputs{
		MonthlyInvoiceVolume: 1, NumAPStaff: 1, AvgHoursPerInvoice: 0.01, HourlyWage: 1,
		ErrorRateManual: 0, ErrorCost: 100, TimeHorizonMonths: 12, OneTimeImplementationCost: 1000,
	}
	out, err := r.Render(in, roi.Calculate(in))
	require.NoError(t, err)
	assert.Contains(t, string(out), "Payback Months: N/A")
}
