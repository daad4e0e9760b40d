package emotion

// Dominant is the label carrying the highest probability of a Distribution.
type Dominant struct {
	Label       string
	Probability float64
}

// Select returns the most probable label. Exact ties go to the lexically smallest label.
func Select(d Distribution) Dominant {
	var best Dominant
	found := false
	for _, label := range d.Labels() {
		p := d.probs[label]
		if !found || p > best.Probability {
			best = Dominant{Label: label, Probability: p}
			found = true
		}
	}
	return best
}
