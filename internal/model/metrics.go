package model

// Metric is a score that may be undefined, e.g. AUC over a single class.
type Metric struct {
	Value   float64
	Defined bool
}

// ModelScore holds the evaluation of one fitted classifier.
type ModelScore struct {
	Model    string
	TrainAUC Metric
	ValidAUC Metric
}

// ConfusionMatrix counts predictions; Counts[actual][predicted].
type ConfusionMatrix struct {
	Model  string
	Counts [2][2]int
}

// Total returns the number of classified rows.
func (c ConfusionMatrix) Total() int {
	return c.Counts[0][0] + c.Counts[0][1] + c.Counts[1][0] + c.Counts[1][1]
}

// Accuracy returns the fraction of correct predictions, 0 when empty.
func (c ConfusionMatrix) Accuracy() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return float64(c.Counts[0][0]+c.Counts[1][1]) / float64(total)
}
