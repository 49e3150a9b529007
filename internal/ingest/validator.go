// Package ingest parses uploaded tabular files and computes the aggregate
// statistics persisted as upload history.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"equipdata/domain/upload"
	"equipdata/internal/errors"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"
)

// Required columns. FlowRate, Pressure and Temperature must be numeric in
// every row; Type is the categorical column driving the distribution.
// Temperature is validated but not aggregated.
const (
	columnType        = "Type"
	columnFlowRate    = "FlowRate"
	columnPressure    = "Pressure"
	columnTemperature = "Temperature"
)

var requiredColumns = []string{columnType, columnFlowRate, columnPressure, columnTemperature}

// Validator turns an uploaded file into an Aggregate. It is a pure function
// over the file content: no I/O beyond reading the provided stream, no side
// effects, safe to retry.
type Validator struct{}

// NewValidator creates a new ingestion validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate parses the named file, enforces schema and non-emptiness, and
// computes the aggregate. All failures are all-or-nothing: no partial
// aggregate is ever returned.
func (v *Validator) Validate(filename string, r io.Reader) (*upload.Aggregate, error) {
	var rows [][]string
	var err error

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx":
		rows, err = readXLSX(r)
	default:
		return nil, errors.UnsupportedFormat(filename)
	}
	if err != nil {
		return nil, err
	}

	return aggregate(rows)
}

func readCSV(r io.Reader) ([][]string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to read CSV file: %v", err), err)
	}
	// Excel exports CSV with a UTF-8 BOM that would corrupt the first
	// header name.
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to read CSV file: %v", err), err)
	}
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to open workbook: %v", err), err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to read sheet %q: %v", sheet, err), err)
	}
	return rows, nil
}

// aggregate computes the summary over parsed rows. The first row is the
// header; every later row must provide a category and three numeric values.
func aggregate(rows [][]string) (*upload.Aggregate, error) {
	if len(rows) == 0 {
		return nil, errors.EmptyInput()
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return nil, errors.SchemaError(name)
		}
	}

	dataRows := rows[1:]
	if len(dataRows) == 0 {
		return nil, errors.EmptyInput()
	}

	flowRates := make([]float64, 0, len(dataRows))
	pressures := make([]float64, 0, len(dataRows))
	distribution := make(upload.Distribution)

	for i, row := range dataRows {
		rowNum := i + 2 // 1-based, counting the header

		category, err := cell(row, index[columnType], rowNum, columnType)
		if err != nil {
			return nil, err
		}

		flowRate, err := numericCell(row, index[columnFlowRate], rowNum, columnFlowRate)
		if err != nil {
			return nil, err
		}
		pressure, err := numericCell(row, index[columnPressure], rowNum, columnPressure)
		if err != nil {
			return nil, err
		}
		// Temperature must parse but does not feed any aggregate.
		if _, err := numericCell(row, index[columnTemperature], rowNum, columnTemperature); err != nil {
			return nil, err
		}

		flowRates = append(flowRates, flowRate)
		pressures = append(pressures, pressure)
		distribution[category]++
	}

	avgFlowRate, err := stats.Mean(flowRates)
	if err != nil {
		return nil, errors.ParseError("failed to compute flow rate mean", err)
	}
	avgPressure, err := stats.Mean(pressures)
	if err != nil {
		return nil, errors.ParseError("failed to compute pressure mean", err)
	}

	return &upload.Aggregate{
		TotalRows:    len(dataRows),
		AvgFlowRate:  avgFlowRate,
		AvgPressure:  avgPressure,
		Distribution: distribution,
	}, nil
}

func cell(row []string, col, rowNum int, name string) (string, error) {
	if col >= len(row) || strings.TrimSpace(row[col]) == "" {
		return "", errors.ParseError(fmt.Sprintf("row %d: missing %s value", rowNum, name), nil)
	}
	return strings.TrimSpace(row[col]), nil
}

func numericCell(row []string, col, rowNum int, name string) (float64, error) {
	raw, err := cell(row, col, rowNum, name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.ParseError(fmt.Sprintf("row %d: invalid %s value %q", rowNum, name, raw), err)
	}
	return value, nil
}
