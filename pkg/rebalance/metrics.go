package rebalance

import "math"

// average returns the mean of vs, or 0 if empty.
func average(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

// stddev returns the population standard deviation of vs, or 0 if n <= 1.
func stddev(vs []float64) float64 {
	n := len(vs)
	if n <= 1 {
		return 0
	}
	mean := average(vs)
	var sumSq float64
	for _, v := range vs {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(n))
}

// rebalanceCostUSDFromBps is rebalance_cost_usd_from_bps: fee_fraction *
// position_value_usd + gas_cost_usd, fee_fraction = dex_fee_bps/10000.
func rebalanceCostUSDFromBps(dexFeeBps int64, positionValueUSD, gasCostUSD float64) float64 {
	feeFraction := float64(dexFeeBps) / 10000.0
	return feeFraction*positionValueUSD + gasCostUSD
}

// ComputeComponents computes the §4.7.1 score components for one candidate.
func ComputeComponents(in PoolScoreInput, params Params, positionValueUSD float64) ScoreComponents {
	logTVL := 0.0
	if in.TVL > 0 {
		logTVL = math.Log10(in.TVL)
	}
	capitalEfficiency := 0.0
	if in.TVL > 0 {
		capitalEfficiency = in.VolumePeriod / in.TVL
	}
	return ScoreComponents{
		SmaAPYUSD:            average(in.USDAPYSeries),
		SmaAPYTokens:         average(in.TokenAPYSeries),
		APYVolatility:        stddev(in.USDAPYSeries),
		TokenPriceVolatility: stddev(in.AvgTokenPriceSeries),
		LogTVL:               logTVL,
		CapitalEfficiency:    capitalEfficiency,
		RebalanceCost:        rebalanceCostUSDFromBps(params.DexFeeBps, positionValueUSD, params.GasCostUSD),
		USDAPYLongTerm:       in.USDAPYLongTerm,
	}
}
