package quiz

import "math"

// Score returns round(100 * correct / total), or 0 when total is 0.
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// CountCorrect returns the number of correct results.
func CountCorrect(results []GradeResult) int {
	n := 0
	for _, r := range results {
		if r.IsCorrect {
			n++
		}
	}
	return n
}
