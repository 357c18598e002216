package parquet_accumulator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danthegoodman1/splitread/dtype"
	"github.com/danthegoodman1/splitread/table"
)

type (
	ParquetSchemaAccumulator struct {
		schema ParquetSchema
		dtypes []dtype.Dtype
	}

	ParquetSchema struct {
		TagStructs SchemaTag        `json:"-,omitempty"`
		Fields     []*ParquetSchema `json:",omitempty"`
	}

	ParquetJSONSchema struct {
		Tag    string               `json:",omitempty"`
		Fields []*ParquetJSONSchema `json:",omitempty"`
	}

	SchemaTag struct {
		Name           string         `json:"name,omitempty"`
		Type           string         `json:"type,omitempty"`
		ConvertedType  string         `json:"convertedtype,omitempty"`
		RepetitionType RepetitionType `json:"repetitiontype,omitempty"`
		Encoding       string         `json:"encoding,omitempty"`
	}

	RepetitionType string
)

var (
	Optional RepetitionType = "OPTIONAL"
	Required RepetitionType = "REQUIRED"

	// tag values are split on these
	nameReplacer = strings.NewReplacer(",", "_", "=", "_")
)

func NewParquetAccumulator() ParquetSchemaAccumulator {
	return ParquetSchemaAccumulator{
		schema: ParquetSchema{
			TagStructs: SchemaTag{
				Name:           "parquet_go_root",
				RepetitionType: Required,
			},
		},
	}
}

// ColumnName is the name a column gets in the parquet schema and in the JSON rows
func ColumnName(name string) string {
	if name == "" {
		return "index"
	}
	return nameReplacer.Replace(name)
}

// AddColumn adds a column unless one with the same name exists
func (pa *ParquetSchemaAccumulator) AddColumn(name string, dt dtype.Dtype) {
	name = ColumnName(name)
	if pa.fieldExists(name) {
		return
	}
	pa.schema.Fields = append(pa.schema.Fields, getParquetSchema(name, dt))
	pa.dtypes = append(pa.dtypes, dt.Resolve())
}

// AddTable adds an explicit index first, then every column in order
func (pa *ParquetSchemaAccumulator) AddTable(t *table.Table) {
	if !t.Index.IsImplicit() {
		pa.AddColumn(t.Index.Name, t.Index.Dtype)
	}
	for i, c := range t.Columns {
		pa.AddColumn(c, t.Dtypes[i])
	}
}

func getParquetSchema(name string, dt dtype.Dtype) *ParquetSchema {
	schema := &ParquetSchema{
		TagStructs: SchemaTag{
			Name:           name,
			RepetitionType: Optional,
		},
	}
	switch dt.Resolve().Kind {
	case dtype.Int64:
		schema.TagStructs.Type = "INT64"
	case dtype.Float64:
		schema.TagStructs.Type = "DOUBLE"
	case dtype.Bool:
		schema.TagStructs.Type = "BOOLEAN"
	case dtype.Datetime:
		schema.TagStructs.Type = "INT64"
		schema.TagStructs.ConvertedType = "TIMESTAMP_MILLIS"
	default:
		schema.TagStructs.Type = "BYTE_ARRAY"
		schema.TagStructs.ConvertedType = "UTF8"
		schema.TagStructs.Encoding = "PLAIN"
	}
	return schema
}

func (pa *ParquetSchemaAccumulator) fieldExists(fieldName string) (exists bool) {
	for _, field := range pa.schema.Fields {
		if field.TagStructs.Name == fieldName {
			return true
		}
	}
	return
}

func (pa *ParquetSchemaAccumulator) GetColumnNames() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.TagStructs.Name)
	}
	return cols
}

func (ps *ParquetSchema) GetType() string {
	switch ps.TagStructs.Type {
	case "BYTE_ARRAY":
		return "string"
	case "DOUBLE":
		return "double"
	case "BOOLEAN":
		return "boolean"
	case "INT64":
		if ps.TagStructs.ConvertedType == "TIMESTAMP_MILLIS" {
			return "timestamp"
		}
		return "int64"
	default:
		return "unknown"
	}
}

// GetColumnTypes returns the parquet types of columns in the same order
func (pa *ParquetSchemaAccumulator) GetColumnTypes() []string {
	var cols []string
	for _, field := range pa.schema.Fields {
		cols = append(cols, field.GetType())
	}
	return cols
}

// ToParquetJSONSchema recursively converts
func (ps *ParquetSchema) ToParquetJSONSchema() *ParquetJSONSchema {
	var tagArr []string
	if ps.TagStructs.Type != "" {
		tagArr = append(tagArr, "type="+ps.TagStructs.Type)
	}
	if ps.TagStructs.ConvertedType != "" {
		tagArr = append(tagArr, "convertedtype="+ps.TagStructs.ConvertedType)
	}
	if ps.TagStructs.Encoding != "" {
		tagArr = append(tagArr, "encoding="+ps.TagStructs.Encoding)
	}
	if ps.TagStructs.Name != "" {
		tagArr = append(tagArr, "name="+ps.TagStructs.Name)
	}
	if string(ps.TagStructs.RepetitionType) != "" {
		tagArr = append(tagArr, "repetitiontype="+string(ps.TagStructs.RepetitionType))
	}
	var fields []*ParquetJSONSchema
	for _, field := range ps.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	return &ParquetJSONSchema{
		Tag:    strings.Join(tagArr, ", "),
		Fields: fields,
	}
}

// GetSchemaString returns the JSON formatted schema string
func (pa *ParquetSchemaAccumulator) GetSchemaString() (string, error) {
	var fields []*ParquetJSONSchema
	for _, field := range pa.schema.Fields {
		fields = append(fields, field.ToParquetJSONSchema())
	}
	pjs := ParquetJSONSchema{
		Tag:    "name=parquet_go_root, repetitiontype=REQUIRED",
		Fields: fields,
	}

	b, err := json.Marshal(pjs)
	if err != nil {
		return "", fmt.Errorf("error in json.Marshal: %w", err)
	}
	return string(b), nil
}
