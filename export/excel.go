package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"vispath/graph"
	"vispath/table"
)

const (
	CONNECTIONS_SHEET = "connections"
	NODES_SHEET       = "nodes"
)

var (
	connectionHeader = []any{"pre", "post", "weight", "pre_role", "post_role", "pre_layer", "post_layer"}
	nodeHeader       = []any{"name", "role", "layer", "in_degree", "out_degree", "in_weight", "out_weight"}
)

// WriteExcel writes a workbook with one row per connection record and one
// row per node. Role and layer of each record come from nodes by name, so
// self-loops left out of the graph still get their row.
func WriteExcel(w io.Writer, conns []table.Connection, nodes []graph.NodeInfo) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", CONNECTIONS_SHEET); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := wb.NewSheet(NODES_SHEET); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	byName := make(map[string]graph.NodeInfo, len(nodes))
	for _, n := range nodes {
		byName[n.Name] = n
	}
	rows := make([][]any, 0, len(conns))
	for _, c := range conns {
		from, ok := byName[c.Pre]
		if !ok {
			return fmt.Errorf("connection %s -> %s: unknown node %q", c.Pre, c.Post, c.Pre)
		}
		to, ok := byName[c.Post]
		if !ok {
			return fmt.Errorf("connection %s -> %s: unknown node %q", c.Pre, c.Post, c.Post)
		}
		rows = append(rows, []any{c.Pre, c.Post, c.Weight, string(from.Role), string(to.Role), from.Layer, to.Layer})
	}
	if err := writeSheet(wb, CONNECTIONS_SHEET, connectionHeader, rows, bold); err != nil {
		return err
	}

	rows = make([][]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []any{n.Name, string(n.Role), n.Layer, n.InDegree, n.OutDegree, n.InWeight, n.OutWeight})
	}
	if err := writeSheet(wb, NODES_SHEET, nodeHeader, rows, bold); err != nil {
		return err
	}

	wb.SetActiveSheet(0)
	if err := wb.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(wb *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := wb.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", sheet, err)
	}
	if err := wb.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("%s column width: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
