package db

import "math"

// LikeRatio returns likes/(likes+dislikes) in percent, rounded to one decimal.
// Zero reactions give 0.
func LikeRatio(likes, dislikes int64) float64 {
	total := likes + dislikes
	if total <= 0 {
		return 0
	}
	return math.Round(float64(likes)/float64(total)*1000) / 10
}
