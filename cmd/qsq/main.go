// qsq applies a query specification to a file of JSON records and prints
// the matching records, one JSON object per line. The query comes either
// from a YAML definition file or from a filter expression on the command
// line.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/thisisjab/queryspec/ast"
	"github.com/thisisjab/queryspec/parser"
	"github.com/thisisjab/queryspec/spec"
	"gopkg.in/yaml.v3"
)

type record = map[string]any

type queryDefinition struct {
	Filter string `yaml:"filter"`
	Sort   []struct {
		Property   string `yaml:"property"`
		Descending bool   `yaml:"descending"`
	} `yaml:"sort"`
	Page     int `yaml:"page"`
	PageSize int `yaml:"page_size"`
}

func main() {
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: time.Kitchen,
		}),
	)

	filterText := flag.String("filter", "", "filter expression, e.g. 'level == \"error\"'")
	queryFile := flag.String("query", "", "path to a YAML query definition")
	flag.Parse()

	if flag.NArg() != 1 {
		logger.Error("usage: qsq [-filter EXPR | -query FILE] RECORDS.json")
		os.Exit(2)
	}

	def := queryDefinition{Filter: *filterText}
	if *queryFile != "" {
		data, err := os.ReadFile(*queryFile)
		if err != nil {
			logger.Error("cannot read query definition.", "error", err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &def); err != nil {
			logger.Error("cannot parse query definition.", "error", err)
			os.Exit(1)
		}
	}

	records, err := readRecords(flag.Arg(0))
	if err != nil {
		logger.Error("cannot read records.", "error", err)
		os.Exit(1)
	}

	matched, err := run(def, records)
	if err != nil {
		logger.Error("cannot run query.", "error", err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	enc := json.NewEncoder(out)
	for _, r := range matched {
		if err := enc.Encode(r); err != nil {
			logger.Error("cannot write record.", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("query finished.", "read", len(records), "matched", len(matched))
}

func run(def queryDefinition, records []record) ([]record, error) {
	var pred ast.Expr
	if def.Filter != "" {
		pred = parser.Parse[record](def.Filter)
		if pred == nil {
			return nil, fmt.Errorf("filter `%s` is malformed", def.Filter)
		}
	}

	q := spec.NewQuery[record]()
	for _, s := range def.Sort {
		direction := spec.OrderBy
		if s.Descending {
			direction = spec.OrderByDescending
		}
		q.Orders.Add(s.Property, direction)
	}
	if def.Page > 0 {
		size := def.PageSize
		if size == 0 {
			size = 100
		}
		q.SetPage(def.Page, size)
	}

	// The filter expression is applied directly; the Query carries the
	// sorting and paging.
	matched := records
	if pred != nil {
		matched = make([]record, 0, len(records))
		for _, r := range records {
			if ast.Matches(pred, r) {
				matched = append(matched, r)
			}
		}
	}

	return q.Apply(matched), nil
}

// readRecords accepts either a JSON array of objects or JSON lines.
func readRecords(path string) ([]record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var asArray []record
	if err := json.Unmarshal(data, &asArray); err == nil {
		return asArray, nil
	}

	var out []record
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("invalid record line: %w", err)
		}
		out = append(out, r)
	}
	return out, scanner.Err()
}
