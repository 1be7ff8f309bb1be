package rebalance

const SecondsInHour = 3600
const SecondsInDay = SecondsInHour * 24
const SecondsInYear = SecondsInDay * 365

// Decide implements §4.7.4: cooldown gate, best-candidate selection,
// score-threshold gate, expected-gain-vs-cost gate. currentScore may be
// the zero ScoreOutput if there is no live position; candidateScores
// excludes the current pool.
func Decide(
	nowSecs uint64,
	lastRebalanceAt *uint64,
	currentScore ScoreOutput,
	candidateScores []ScoreOutput,
	params Params,
	positionValueUSD float64,
	currentAPYUSDSMA float64,
) Decision {
	if lastRebalanceAt != nil && nowSecs-*lastRebalanceAt < params.CooldownSecs {
		return Decision{ShouldMove: false}
	}

	best, ok := bestCandidate(candidateScores)
	if !ok {
		return Decision{ShouldMove: false}
	}

	scoreDiff := best.Score - currentScore.Score
	if scoreDiff < params.ScoreThreshold {
		id := best.PoolID
		return Decision{ShouldMove: false, TargetPoolID: &id, ScoreDiff: scoreDiff}
	}

	apyDelta := best.Components.SmaAPYUSD - currentAPYUSDSMA
	expectedGainUSD := (apyDelta / 100) * positionValueUSD * (float64(params.CooldownSecs) / float64(SecondsInYear))
	costUSD := best.Components.RebalanceCost

	id := best.PoolID
	return Decision{
		ShouldMove:   expectedGainUSD >= costUSD*params.GainCostMultiplier,
		TargetPoolID: &id,
		ScoreDiff:    scoreDiff,
	}
}

// bestCandidate picks the highest-score candidate; ties keep the first in
// iteration order.
func bestCandidate(candidates []ScoreOutput) (ScoreOutput, bool) {
	if len(candidates) == 0 {
		return ScoreOutput{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}
