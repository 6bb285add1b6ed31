package dynamic

import "math"

func powFloat(base, exp float64) float64 { return math.Pow(base, exp) }
