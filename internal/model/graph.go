package model

// GraphData is the full result of processing one user's dashboard.
type GraphData struct {
	Metadata       Metadata       `json:"metadata"`
	DataPoints     CurveSet       `json:"data_points"`
	TimeSeries     TimeSeries     `json:"time_series"`
	PurchaseScores PurchaseScores `json:"purchase_scores"`
	Views          Views          `json:"views"`
}

// Metadata summarizes the inputs and scores of a run.
type Metadata struct {
	UserID             int     `json:"user_id"`
	CurrentSavings     float64 `json:"current_savings"`
	GoalAmount         float64 `json:"goal_amount"`
	IncomeMonthly      float64 `json:"income_monthly"`
	DaysHorizon        int     `json:"days_horizon"`
	MoneyScore         float64 `json:"money_score"`
	OverallScore       float64 `json:"overall_score"`
	ModelError         *string `json:"model_error"`
	PurchasesProcessed int     `json:"purchases_processed"`
	ModelUpdated       bool    `json:"model_updated"`
	HistoryLength      int     `json:"history_length"`
	ForecastMode       string  `json:"forecast_mode"`
}

// CurveSet carries the day-indexed curves of a view.
type CurveSet struct {
	Days             []int     `json:"days"`
	ProjectedSavings Curve     `json:"projected_savings"`
	IdealPlan        Curve     `json:"ideal_plan"`
	GoalLine         []float64 `json:"goal_line"`
}

// TimeSeries holds diagnostic per-day series.
type TimeSeries struct {
	DailyNetSavings []float64 `json:"daily_net_savings"`
	DailyIncome     []float64 `json:"daily_income"`
	Adjustments     []float64 `json:"adjustments"`
	TrendFactor     []float64 `json:"trend_factor"`
	ForecastSpend   Curve     `json:"forecast_spend"`
}

// PurchaseScores holds the per-purchase model output.
type PurchaseScores struct {
	Scores       []float64 `json:"scores"`
	UsedFeatures []string  `json:"used_features"`
}

// Views are truncated copies of the curves for UI convenience.
type Views struct {
	Week        CurveSet `json:"week"`
	Month       CurveSet `json:"month"`
	FullHorizon CurveSet `json:"full_horizon"`
}

// Forecast modes reported in Metadata.ForecastMode.
const (
	ForecastModel    = "model"
	ForecastFallback = "fallback"
)
