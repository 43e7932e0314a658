package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"BitcoinTrend/internal/model"
)

// Workbook sheet names.
const (
	SheetFeatures  = "Features"
	SheetMetrics   = "Metrics"
	SheetConfusion = "Confusion"
)

// Partition names written in the Features sheet.
const (
	PartitionTrain = "train"
	PartitionValid = "valid"
	PartitionNone  = "unlabelled"
)

// WorkbookData is everything exported for one run.
type WorkbookData struct {
	RunID     string
	Dataset   *model.Dataset
	Split     model.Split
	Scores    []model.ModelScore
	Confusion *model.ConfusionMatrix
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// WriteWorkbook saves the feature table, model metrics and confusion matrix to an .xlsx file.
func WriteWorkbook(path string, data WorkbookData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetFeatures); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeFeatures(f, data); err != nil {
		return err
	}
	if err := writeMetrics(f, data); err != nil {
		return err
	}
	if err := writeConfusion(f, data); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// partitions maps labelled record positions to their split partition.
func partitions(split model.Split) map[int]string {
	out := make(map[int]string, len(split.Train)+len(split.Valid))
	for _, i := range split.Train {
		out[i] = PartitionTrain
	}
	for _, i := range split.Valid {
		out[i] = PartitionValid
	}
	return out
}

func writeFeatures(f *excelize.File, data WorkbookData) error {
	header := []any{"date", model.ColOpen, model.ColHigh, model.ColLow, model.ColClose}
	for _, c := range model.FeatureColumns {
		header = append(header, c)
	}
	header = append(header, model.ColTarget, "partition")
	if err := f.SetSheetRow(SheetFeatures, "A1", &header); err != nil {
		return fmt.Errorf("write features header: %w", err)
	}

	parts := partitions(data.Split)
	labelled := 0
	for i, r := range data.Dataset.Records {
		row := []any{r.Date.Format("2006-01-02"), r.Open, r.High, r.Low, r.Close}
		for _, c := range model.FeatureColumns {
			row = append(row, r.Field(c))
		}
		if r.HasTarget {
			row = append(row, r.Target, parts[labelled])
			labelled++
		} else {
			row = append(row, "", PartitionNone)
		}
		if err := f.SetSheetRow(SheetFeatures, cellName(1, i+2), &row); err != nil {
			return fmt.Errorf("write features row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeMetrics(f *excelize.File, data WorkbookData) error {
	if _, err := f.NewSheet(SheetMetrics); err != nil {
		return fmt.Errorf("create metrics sheet: %w", err)
	}
	header := []any{"run_id", "model", "train_auc", "train_defined", "valid_auc", "valid_defined"}
	if err := f.SetSheetRow(SheetMetrics, "A1", &header); err != nil {
		return fmt.Errorf("write metrics header: %w", err)
	}
	for i, s := range data.Scores {
		row := []any{data.RunID, s.Model, s.TrainAUC.Value, s.TrainAUC.Defined, s.ValidAUC.Value, s.ValidAUC.Defined}
		if err := f.SetSheetRow(SheetMetrics, cellName(1, i+2), &row); err != nil {
			return fmt.Errorf("write metrics row: %w", err)
		}
	}
	return nil
}

func writeConfusion(f *excelize.File, data WorkbookData) error {
	if _, err := f.NewSheet(SheetConfusion); err != nil {
		return fmt.Errorf("create confusion sheet: %w", err)
	}
	cm := data.Confusion
	if cm == nil {
		return nil
	}
	rows := [][]any{
		{cm.Model, "pred 0", "pred 1"},
		{"true 0", cm.Counts[0][0], cm.Counts[0][1]},
		{"true 1", cm.Counts[1][0], cm.Counts[1][1]},
	}
	for i := range rows {
		if err := f.SetSheetRow(SheetConfusion, cellName(1, i+1), &rows[i]); err != nil {
			return fmt.Errorf("write confusion row: %w", err)
		}
	}
	return nil
}
