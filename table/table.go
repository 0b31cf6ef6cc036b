package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSheet       = errors.New("sheet not found")
	ErrMissingColumn = errors.New("required column missing")
	ErrUnsupported   = errors.New("unsupported table format")
)

// Connection is one pre -> post record of a pathway table. Layer is -1
// when the table carries no layer column.
type Connection struct {
	Pre    string
	Post   string
	Weight float64
	Layer  int
}

var (
	PRE_ALIASES    = []string{"pre", "source", "pre_type", "pre_bodyid", "from"}
	POST_ALIASES   = []string{"post", "target", "post_type", "post_bodyid", "to"}
	WEIGHT_ALIASES = []string{"weight", "synapses", "syn_count", "count", "w"}
	LAYER_ALIASES  = []string{"layer", "hop", "level"}
)

func Load(fs afero.Fs, path, sheet string) ([]Connection, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbook(f, sheet)
	case ".csv":
		rows, err = readCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if err != nil {
		return nil, err
	}
	return Parse(rows)
}

func readWorkbook(r io.Reader, sheet string) ([][]string, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	name, err := SelectSheet(wb.GetSheetList(), sheet)
	if err != nil {
		return nil, err
	}
	rows, err := wb.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// SelectSheet picks a sheet from sheets. An empty selector prefers the first
// sheet named path*, a numeric selector is a zero-based index, anything else
// must match a sheet name.
func SelectSheet(sheets []string, selector string) (string, error) {
	if len(sheets) == 0 {
		return "", ErrNoSheet
	}
	selector = strings.TrimSpace(selector)
	if selector == "" {
		for _, s := range sheets {
			if strings.HasPrefix(strings.ToLower(s), "path") {
				return s, nil
			}
		}
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == selector {
			return s, nil
		}
	}
	if idx, err := strconv.Atoi(selector); err == nil {
		if idx < 0 || idx >= len(sheets) {
			return "", fmt.Errorf("%w: index %d of %d sheets", ErrNoSheet, idx, len(sheets))
		}
		return sheets[idx], nil
	}
	return "", fmt.Errorf("%w: %q", ErrNoSheet, selector)
}

// Parse turns a header row plus data rows into merged connections. Repeated
// pre/post pairs are summed into one record, keeping first-appearance order.
func Parse(rows [][]string) ([]Connection, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: table is empty", ErrMissingColumn)
	}
	header := rows[0]
	preCol := findColumn(header, PRE_ALIASES)
	postCol := findColumn(header, POST_ALIASES)
	if preCol < 0 {
		return nil, fmt.Errorf("%w: pre (one of %s)", ErrMissingColumn, strings.Join(PRE_ALIASES, ", "))
	}
	if postCol < 0 {
		return nil, fmt.Errorf("%w: post (one of %s)", ErrMissingColumn, strings.Join(POST_ALIASES, ", "))
	}
	weightCol := findColumn(header, WEIGHT_ALIASES)
	layerCol := findColumn(header, LAYER_ALIASES)

	type pair struct{ pre, post string }
	index := map[pair]int{}
	conns := make([]Connection, 0, len(rows)-1)

	for i, row := range rows[1:] {
		line := i + 2
		pre := cell(row, preCol)
		post := cell(row, postCol)
		if pre == "" && post == "" {
			continue
		}
		if pre == "" || post == "" {
			return nil, fmt.Errorf("row %d: pre and post must both be set", line)
		}

		weight := 1.0
		if raw := cell(row, weightCol); weightCol >= 0 && raw != "" {
			w, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("row %d column %q: invalid weight %q", line, header[weightCol], raw)
			}
			weight = w
		}

		layer := -1
		if raw := cell(row, layerCol); layerCol >= 0 && raw != "" {
			l, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(l) || math.IsInf(l, 0) {
				return nil, fmt.Errorf("row %d column %q: invalid layer %q", line, header[layerCol], raw)
			}
			layer = int(l)
		}

		key := pair{pre, post}
		if at, ok := index[key]; ok {
			conns[at].Weight += weight
			if conns[at].Layer < 0 {
				conns[at].Layer = layer
			}
			continue
		}
		index[key] = len(conns)
		conns = append(conns, Connection{Pre: pre, Post: post, Weight: weight, Layer: layer})
	}
	return conns, nil
}

func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), alias) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}
