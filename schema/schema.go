// Package schema writes the web-service schema document describing the
// scoring function's input and output.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/YuminosukeSato/adultcensus/dataset"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/score"
)

// DataType names the kind of input a SampleDefinition describes.
type DataType string

const (
	DataFrame DataType = "dataframe"
	Standard  DataType = "standard"
)

// FunctionName is the scoring function recorded in the document.
const FunctionName = "run"

// SampleDefinition pairs an input type with a sample value.
type SampleDefinition struct {
	DataType DataType
	Sample   *dataset.Frame
}

// Property is one swagger property.
type Property struct {
	Type   string `json:"type"`
	Format string `json:"format,omitempty"`
}

// Swagger describes an array of records.
type Swagger struct {
	Type    string `json:"type"`
	Items   Items  `json:"items"`
	Example []any  `json:"example"`
}

// Items describes one record.
type Items struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
}

// Input documents one named argument.
type Input struct {
	Type    DataType `json:"type"`
	Swagger Swagger  `json:"swagger"`
}

// Output documents the return value.
type Output struct {
	Type    string `json:"type"`
	Example any    `json:"example"`
}

// Document is the service schema file.
type Document struct {
	Function string           `json:"function"`
	Input    map[string]Input `json:"input"`
	Output   Output           `json:"output"`
}

// Generate builds the schema for run, invoking it once per input with the
// sample records to capture the output example, and writes it to path.
func Generate(run score.RunFunc, inputs map[string]SampleDefinition, path string) (*Document, error) {
	if run == nil {
		return nil, errors.NewValidationError("run", "is required", nil)
	}
	if len(inputs) == 0 {
		return nil, errors.NewValidationError("inputs", "at least one input is required", nil)
	}

	doc := &Document{
		Function: FunctionName,
		Input:    make(map[string]Input, len(inputs)),
		Output:   Output{Type: "json"},
	}

	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		def := inputs[name]
		if def.Sample == nil || def.Sample.Len() == 0 {
			return nil, errors.NewValidationError(name, "sample must have at least one row", nil)
		}
		dataType := def.DataType
		if dataType == "" {
			dataType = DataFrame
		}

		props, records, err := describe(def.Sample)
		if err != nil {
			return nil, errors.Wrapf(err, "describe input %q", name)
		}
		doc.Input[name] = Input{
			Type: dataType,
			Swagger: Swagger{
				Type:    "array",
				Items:   Items{Type: "object", Properties: props},
				Example: records,
			},
		}

		raw, err := json.Marshal(records)
		if err != nil {
			return nil, errors.Wrap(err, "encode sample")
		}
		out, err := run(string(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "run sample %q", name)
		}
		var example any
		if err := json.Unmarshal([]byte(out), &example); err != nil {
			example = out
		}
		doc.Output.Example = example
	}

	if err := write(doc, path); err != nil {
		return nil, err
	}
	return doc, nil
}

// describe infers a property per column and converts the sample rows to
// records. A column is a double when every sample cell is a JSON number literal.
func describe(f *dataset.Frame) (map[string]Property, []any, error) {
	cols := f.Columns()
	props := make(map[string]Property, len(cols))
	numeric := make([]bool, len(cols))
	for j, c := range cols {
		cells, err := f.Column(c)
		if err != nil {
			return nil, nil, err
		}
		numeric[j] = true
		for _, v := range cells {
			if !isNumber(v) {
				numeric[j] = false
				break
			}
		}
		if numeric[j] {
			props[c] = Property{Type: "number", Format: "double"}
		} else {
			props[c] = Property{Type: "string"}
		}
	}

	records := make([]any, f.Len())
	for i := range records {
		row := f.Row(i)
		rec := make(map[string]any, len(cols))
		for j, c := range cols {
			if numeric[j] {
				rec[c] = json.Number(row[j])
			} else {
				rec[c] = row[j]
			}
		}
		records[i] = rec
	}
	return props, records, nil
}

// isNumber reports whether v is a finite number written as a JSON literal,
// so "35.0" keeps its text in the example while "NaN" and "+5" stay strings.
func isNumber(v string) bool {
	if _, err := strconv.ParseFloat(v, 64); err != nil {
		return false
	}
	return json.Valid([]byte(v))
}

func write(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode schema")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// Validate checks that data is a schema document whose every input declares
// a property for each of columns.
func Validate(data []byte, columns []string) error {
	if !gjson.ValidBytes(data) {
		return errors.NewValueError("schema.Validate", "document is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if fn := doc.Get("function").String(); fn != FunctionName {
		return errors.NewValidationError("function", fmt.Sprintf("want %q", FunctionName), fn)
	}
	inputs := doc.Get("input")
	if !inputs.IsObject() || len(inputs.Map()) == 0 {
		return errors.NewValidationError("input", "no inputs declared", nil)
	}

	var verr error
	inputs.ForEach(func(name, in gjson.Result) bool {
		props := in.Get("swagger.items.properties")
		for _, c := range columns {
			p := props.Get(gjson.Escape(c))
			if !p.Exists() {
				verr = errors.NewValidationError(name.String(), fmt.Sprintf("missing property %q", c), nil)
				return false
			}
			if t := p.Get("type").String(); t != "string" && t != "number" {
				verr = errors.NewValidationError(name.String(), fmt.Sprintf("property %q has type %q", c, t), t)
				return false
			}
		}
		return true
	})
	if verr != nil {
		return verr
	}
	if !doc.Get("output").Exists() {
		return errors.NewValidationError("output", "is required", nil)
	}
	return nil
}
