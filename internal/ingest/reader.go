package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

const maxLineBytes = 4 << 20

// textRow is one dataset row; datasets name the roast column either body or text.
type textRow struct {
	Body string `json:"body"`
	Text string `json:"text"`
}

func (r textRow) value() string {
	if r.Body != "" {
		return r.Body
	}
	return r.Text
}

// ReadTexts loads the roast column from a .parquet or .jsonl dataset, in file order.
func ReadTexts(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return ReadParquet(path)
	case ".jsonl", ".ndjson":
		return ReadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .parquet or .jsonl)", filepath.Ext(path))
	}
}

// ReadJSONL reads one JSON object per line. Blank lines are skipped.
func ReadJSONL(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var texts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var row textRow
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		texts = append(texts, row.value())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return texts, nil
}

// ReadParquet streams every row group and keeps the body (or text) column.
func ReadParquet(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	bodyCol, textCol := resolveTextColumns(pf)
	if bodyCol < 0 && textCol < 0 {
		return nil, fmt.Errorf("parquet file has neither a body nor a text column")
	}

	var texts []string
	buf := make([]parquet.Row, 512)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				texts = append(texts, rowText(buf[i], bodyCol, textCol))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return texts, nil
}

func resolveTextColumns(pf *parquet.File) (body, text int) {
	body, text = -1, -1
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		switch path[0] {
		case "body":
			body = i
		case "text":
			text = i
		}
	}
	return body, text
}

func rowText(row parquet.Row, bodyCol, textCol int) string {
	var r textRow
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case bodyCol:
			r.Body = v.String()
		case textCol:
			r.Text = v.String()
		}
	}
	return r.value()
}
