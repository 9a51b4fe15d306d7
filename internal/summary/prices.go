package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PriceStats summarises the hourly energy price series of a scenario.
type PriceStats struct {
	Count int `json:"count"`

	MinDKKPerKWh  float64 `json:"min_dkk_per_kwh"`
	MaxDKKPerKWh  float64 `json:"max_dkk_per_kwh"`
	MeanDKKPerKWh float64 `json:"mean_dkk_per_kwh"`
	P05DKKPerKWh  float64 `json:"p05_dkk_per_kwh"`
	P95DKKPerKWh  float64 `json:"p95_dkk_per_kwh"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	// OracleArbitrageDKK is what a canonical 1 kW / 1 kWh lossless battery
	// could earn trading the series, starting and ending empty. It is
	// independent of the consumer and serves as a price-volatility score.
	OracleArbitrageDKK float64 `json:"oracle_arbitrage_dkk"`
}

func ComputePriceStats(prices []float64) PriceStats {
	p := PriceStats{Count: len(prices)}
	if len(prices) == 0 {
		return p
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	p.MinDKKPerKWh = floats.Min(prices)
	p.MaxDKKPerKWh = floats.Max(prices)
	p.MeanDKKPerKWh = stat.Mean(prices, nil)
	p.P05DKKPerKWh = stat.Quantile(0.05, stat.LinInterp, sorted, nil)
	p.P95DKKPerKWh = stat.Quantile(0.95, stat.LinInterp, sorted, nil)
	p.SpreadP95P05 = p.P95DKKPerKWh - p.P05DKKPerKWh
	p.OracleArbitrageDKK = oracleArbitrage(prices)
	return p
}

// oracleArbitrage runs a two-state DP (empty/full) over hourly prices.
func oracleArbitrage(prices []float64) float64 {
	negInf := math.Inf(-1)
	empty, full := 0.0, negInf
	for _, price := range prices {
		nextEmpty := math.Max(empty, full+price)
		nextFull := math.Max(full, empty-price)
		empty, full = nextEmpty, nextFull
	}
	return empty
}
