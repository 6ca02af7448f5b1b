package domain

// EquityPoint is one day of the reconstructed equity curve for a phase
// account, written to the analytics store after an evaluation run.
type EquityPoint struct {
	PhaseAccountID string
	Day            string // YYYY-MM-DD in the account timezone
	StartBalance   float64
	NetPnL         float64
	EndBalance     float64
	DayLoss        float64 // max(0, -NetPnL)
	TradeCount     int
}
