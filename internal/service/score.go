package service

// ScoreFromDistance converts a normalized distance in [0, 1] to the
// user-facing similarity score in [0, 100]. 100 means identical.
func ScoreFromDistance(dist float64) float64 {
	return (1 - dist) * 100
}

// DistanceFromScore is the inverse conversion, used to turn a minimum-score
// threshold into a distance cutoff for the index query.
func DistanceFromScore(score float64) float64 {
	return 1 - score/100
}
