package face

// Postprocessor filters or modifies the detections returned by a detector
type Postprocessor func([]Detection) []Detection

// NewScoreFilter returns a function that filters out detections below a certain confidence.
func NewScoreFilter(conf float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Score >= conf {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewAreaFilter returns a function that filters out detections whose box is smaller than area pixels.
func NewAreaFilter(area float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Box.Area() >= area {
				out = append(out, d)
			}
		}
		return out
	}
}

// NewMaxFacesFilter keeps at most n detections, in their original order
func NewMaxFacesFilter(n int) Postprocessor {
	return func(in []Detection) []Detection {
		if n <= 0 || len(in) <= n {
			return in
		}
		return in[:n]
	}
}

// BestDetection returns the index of the highest scoring detection, or -1 for none
func BestDetection(dets []Detection) int {
	best := -1
	for i, d := range dets {
		if best < 0 || d.Score > dets[best].Score {
			best = i
		}
	}
	return best
}
