package roi

// Constants groups the fixed model parameters. They are not user-configurable.
type Constants struct {
	AutomatedCostPerInvoice    float64 `json:"automated_cost_per_invoice"`
	ErrorRateAutoPercent       float64 `json:"error_rate_auto_percent"`
	TimeSavedPerInvoiceMinutes float64 `json:"time_saved_per_invoice_minutes"`
	MinROIBoostFactor          float64 `json:"min_roi_boost_factor"`
	BiasBonusPerErrorPoint     float64 `json:"bias_bonus_per_error_point"`
}

var defaultConstants = Constants{
	AutomatedCostPerInvoice:    0.2,
	ErrorRateAutoPercent:       0.1,
	TimeSavedPerInvoiceMinutes: 8,
	MinROIBoostFactor:          1.1,
	BiasBonusPerErrorPoint:     0.0025,
}

// DefaultConstants returns a copy of the model constants used by Calculate.
func DefaultConstants() Constants {
	return defaultConstants
}

// Inputs represents the operational figures of a manual invoice workflow.
type Inputs struct {
	MonthlyInvoiceVolume      float64 `json:"monthly_invoice_volume"`
	NumAPStaff                float64 `json:"num_ap_staff"`
	AvgHoursPerInvoice        float64 `json:"avg_hours_per_invoice"`
	HourlyWage                float64 `json:"hourly_wage"`
	ErrorRateManual           float64 `json:"error_rate_manual"`
	ErrorCost                 float64 `json:"error_cost"`
	TimeHorizonMonths         float64 `json:"time_horizon_months"`
	OneTimeImplementationCost float64 `json:"one_time_implementation_cost"`
}

// Results contains every derived figure of the ROI calculation.
//
// PaybackMonths is nil when automation produces no positive monthly savings.
// MonthlySavings and everything derived from it include the bias multiplier,
// which is floored at MinROIBoostFactor; ROIPercentage is therefore an
// optimistic figure, not an unbiased projection.
type Results struct {
	MonthlySavings      float64  `json:"monthly_savings"`
	PaybackMonths       *float64 `json:"payback_months"`
	ROIPercentage       float64  `json:"roi_percentage"`
	CumulativeSavings   float64  `json:"cumulative_savings"`
	NetSavings          float64  `json:"net_savings"`
	ErrorSavings        float64  `json:"error_savings"`
	LaborCostSaved      float64  `json:"labor_cost_saved"`
	AutomationCost      float64  `json:"automation_cost"`
	LaborCostManual     float64  `json:"labor_cost_manual"`
	BaselineErrorCost   float64  `json:"baseline_error_cost"`
	AutomationErrorCost float64  `json:"automation_error_cost"`
	BiasMultiplier      float64  `json:"bias_multiplier"`
}

// Calculate computes ROI figures from validated inputs.
// Callers must run Validate first; Calculate performs no checks.
func Calculate(in Inputs) Results {
	c := defaultConstants

	laborCostManual := in.NumAPStaff * in.HourlyWage * in.AvgHoursPerInvoice * in.MonthlyInvoiceVolume
	automationCost := in.MonthlyInvoiceVolume * c.AutomatedCostPerInvoice
	baselineErrorCost := in.MonthlyInvoiceVolume * (in.ErrorRateManual / 100) * in.ErrorCost
	automationErrorCost := in.MonthlyInvoiceVolume * (c.ErrorRateAutoPercent / 100) * in.ErrorCost
	errorSavings := baselineErrorCost - automationErrorCost

	rawMonthlySavings := laborCostManual + errorSavings - automationCost
	biasMultiplier := max(c.MinROIBoostFactor, 1+in.ErrorRateManual*c.BiasBonusPerErrorPoint)

	monthlySavings := rawMonthlySavings * biasMultiplier
	cumulativeSavings := monthlySavings * in.TimeHorizonMonths
	netSavings := cumulativeSavings - in.OneTimeImplementationCost

	var paybackMonths *float64
	if monthlySavings > 0 {
		months := in.OneTimeImplementationCost / monthlySavings
		paybackMonths = &months
	}

	// With no implementation cost the percentage is reported against a
	// notional base of one currency unit.
	roiBase := in.OneTimeImplementationCost
	if roiBase == 0 {
		roiBase = 1
	}
	roiPercentage := ((monthlySavings * in.TimeHorizonMonths) - in.OneTimeImplementationCost) / roiBase * 100

	return Results{
		MonthlySavings:      monthlySavings,
		PaybackMonths:       paybackMonths,
		ROIPercentage:       roiPercentage,
		CumulativeSavings:   cumulativeSavings,
		NetSavings:          netSavings,
		ErrorSavings:        errorSavings,
		LaborCostSaved:      laborCostManual,
		AutomationCost:      automationCost,
		LaborCostManual:     laborCostManual,
		BaselineErrorCost:   baselineErrorCost,
		AutomationErrorCost: automationErrorCost,
		BiasMultiplier:      biasMultiplier,
	}
}
