package steps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
	messages "github.com/cucumber/messages/go/v21"
)

// tableRows maps every data row of table to its header names
func tableRows(table *godog.Table) ([]map[string]string, error) {
	if table == nil || len(table.Rows) < 2 {
		return nil, fmt.Errorf("table must have header and data rows")
	}

	header := table.Rows[0]
	rows := make([]map[string]string, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		rows = append(rows, rowValues(header, row))
	}
	return rows, nil
}

func rowValues(header, row *messages.PickleTableRow) map[string]string {
	values := make(map[string]string, len(header.Cells))
	for i, cell := range header.Cells {
		if i < len(row.Cells) {
			values[cell.Value] = strings.TrimSpace(row.Cells[i].Value)
		}
	}
	return values
}

func atoi(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", value, err)
	}
	return n, nil
}

// splitLabels parses "a, b, c"
func splitLabels(list string) []string {
	parts := strings.Split(list, ",")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			labels = append(labels, part)
		}
	}
	return labels
}
