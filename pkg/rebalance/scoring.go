package rebalance

// ComputeScore implements the §4.7.2 weighted linear score.
func ComputeScore(c ScoreComponents, w Weights) float64 {
	return w.W1SmaAPYUSD*c.SmaAPYUSD +
		w.W2SmaAPYTokens*c.SmaAPYTokens +
		w.W3LogTVL*c.LogTVL +
		w.W4CapitalEfficiency*c.CapitalEfficiency -
		w.W5APYVolatility*c.APYVolatility -
		w.W6RebalanceCost*c.RebalanceCost -
		w.W7TokenPriceVolatility*c.TokenPriceVolatility
}

// Score computes a full ScoreOutput for one candidate.
func Score(in PoolScoreInput, params Params, positionValueUSD float64) ScoreOutput {
	components := ComputeComponents(in, params, positionValueUSD)
	return ScoreOutput{
		PoolID:     in.PoolID,
		Score:      ComputeScore(components, params.Weights),
		Components: components,
	}
}
