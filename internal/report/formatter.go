// Package report formats run results for the console and exports them to a workbook.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"BitcoinTrend/internal/model"
	"BitcoinTrend/internal/recorder"
)

func formatAUC(m model.Metric) string {
	return strconv.FormatFloat(m.Value, 'g', -1, 64)
}

// FormatSplit prints the train and validation matrix shapes.
func FormatSplit(trainRows, validRows, cols int) string {
	return fmt.Sprintf("(%d, %d) (%d, %d)\n", trainRows, cols, validRows, cols)
}

// FormatModelReport lists each model with its training and validation ROC-AUC.
func FormatModelReport(scores []model.ModelScore) string {
	var b strings.Builder
	for _, s := range scores {
		b.WriteString(fmt.Sprintf("%s : \n", s.Model))
		b.WriteString(fmt.Sprintf("Training Accuracy:  %s\n", formatAUC(s.TrainAUC)))
		b.WriteString(fmt.Sprintf("Validation Accuracy:  %s\n", formatAUC(s.ValidAUC)))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatLegend explains the label encoding used by the confusion matrix.
func FormatLegend() string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%d : Goes up\n", model.TargetUp))
	b.WriteString(fmt.Sprintf("%d : Goes down\n", model.TargetDown))
	return b.String()
}

// FormatConfusion prints the confusion matrix counts, rows are true labels.
func FormatConfusion(cm model.ConfusionMatrix) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Confusion matrix (%s, validation):\n", cm.Model))
	b.WriteString("        pred 0  pred 1\n")
	for i := 0; i < 2; i++ {
		b.WriteString(fmt.Sprintf("true %d  %6d  %6d\n", i, cm.Counts[i][0], cm.Counts[i][1]))
	}
	b.WriteString(fmt.Sprintf("accuracy at 0.5: %.4f\n", cm.Accuracy()))
	return b.String()
}

// FormatHistory lists recorded runs, newest first.
func FormatHistory(runs []recorder.RunSummary) string {
	if len(runs) == 0 {
		return "no recorded runs\n"
	}
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s  %s  rows=%d  best=%s (%.4f)  %s\n",
			r.StartedAt.Format(time.DateTime), r.RunID, r.Rows, r.BestModel, r.BestAUC, r.Source))
	}
	return b.String()
}
