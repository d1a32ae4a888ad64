package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"

	"tally/internal/core"
)

// ImportResult reports the outcome of a data import. Imports never return
// errors; failures surface as a message the caller can show verbatim.
type ImportResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ExportJSON renders the full document as indented JSON suitable for a
// user-facing backup file.
func ExportJSON(data core.StorageData) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}

// csvHeader is the fixed column set of the CSV export.
var csvHeader = []string{
	"Date", "Description", "Amount", "Category",
	"Payment Method", "Merchant", "Notes", "Tags",
}

// ExportCSV renders the expenses as CSV, one row per expense, with the
// category resolved to its display name. Amounts are plain decimals without
// a currency symbol so spreadsheets parse them as numbers.
func ExportCSV(expenses []core.Expense, categories []core.Category) ([]byte, error) {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range expenses {
		name := names[e.CategoryID]
		if name == "" {
			name = core.UnknownCategoryName
		}
		row := []string{
			e.Date.Format(core.DateFormatISO),
			e.Description,
			e.Amount.String(),
			name,
			string(e.Payment),
			e.Merchant,
			e.Notes,
			strings.Join(e.Tags, ", "),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportJSON parses a backup produced by ExportJSON and returns the
// document it holds. The payload must be a JSON object carrying at least
// the expenses, categories and preferences keys; anything else is rejected
// with a message and no document.
func ImportJSON(payload []byte) (core.StorageData, ImportResult) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return core.StorageData{}, ImportResult{Message: "Invalid file format. Please select a valid backup file."}
	}
	for _, key := range []string{"expenses", "categories", "preferences"} {
		if _, ok := probe[key]; !ok {
			return core.StorageData{}, ImportResult{Message: "Invalid file format. Please select a valid backup file."}
		}
	}

	var data core.StorageData
	if err := json.Unmarshal(payload, &data); err != nil {
		return core.StorageData{}, ImportResult{Message: "Invalid file format. Please select a valid backup file."}
	}
	normalize(&data)
	data = MigrateDocument(data)

	return data, ImportResult{Success: true, Message: "Data imported successfully!"}
}
