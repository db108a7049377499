package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Export serializes entries in the requested format. Unknown formats fall
// back to JSON.
func Export(entries []*Entry, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatCSV:
		return exportCSV(entries)
	case ExportFormatNDJSON:
		return exportNDJSON(entries)
	default:
		return exportJSON(entries)
	}
}

func exportJSON(entries []*Entry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

func exportNDJSON(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return nil, fmt.Errorf("failed to encode audit entry: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func exportCSV(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "TableName", "RecordID", "Action", "UserID", "ChangedFields", "OldValues", "NewValues", "CreatedAt"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		oldJSON, err := marshalMapColumn(entry.OldValues)
		if err != nil {
			return nil, err
		}
		newJSON, err := marshalMapColumn(entry.NewValues)
		if err != nil {
			return nil, err
		}

		row := []string{
			strconv.FormatInt(entry.ID, 10),
			entry.TableName,
			strconv.FormatInt(entry.RecordID, 10),
			string(entry.Action),
			strconv.FormatInt(entry.UserID, 10),
			strings.Join(entry.ChangedFields, ";"),
			oldJSON,
			newJSON,
			entry.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalMapColumn(values map[string]interface{}) (string, error) {
	if values == nil {
		return "", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return string(data), nil
}
