package recordstore

import (
	"context"
	"encoding/json"
)

// Store is the generic CRUD surface of the record platform. Every call
// returns the platform envelope; a Go error means the call itself could
// not be made or understood.
type Store interface {
	FetchRecords(ctx context.Context, table string, params FetchParams) (*Response, error)
	GetRecordByID(ctx context.Context, table string, id int, params FetchParams) (*Response, error)
	CreateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error)
	UpdateRecord(ctx context.Context, table string, params RecordsParams) (*Response, error)
	DeleteRecord(ctx context.Context, table string, params DeleteParams) (*Response, error)
}

// Field selects a column; ReferenceField expands a lookup column into
// {Id, <referenced field>}.
type Field struct {
	Field          FieldName  `json:"field"`
	ReferenceField *Reference `json:"referenceField,omitempty"`
}

type FieldName struct {
	Name string `json:"Name"`
}

type Reference struct {
	Field FieldName `json:"field"`
}

type OrderBy struct {
	FieldName string `json:"fieldName"`
	SortType  string `json:"sorttype"` // ASC or DESC
}

type PagingInfo struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type FetchParams struct {
	Fields     []Field     `json:"fields"`
	OrderBy    []OrderBy   `json:"orderBy,omitempty"`
	PagingInfo *PagingInfo `json:"pagingInfo,omitempty"`
}

// Record is a flat column -> value map. Updates must carry "Id".
type Record map[string]any

type RecordsParams struct {
	Records []Record `json:"records"`
}

type DeleteParams struct {
	RecordIDs []int `json:"RecordIds"`
}

type FieldError struct {
	FieldLabel string `json:"fieldLabel,omitempty"`
	Message    string `json:"message"`
}

// Result is the per-record outcome of a create, update or delete.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Errors  []FieldError    `json:"errors,omitempty"`
}

type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Results []Result        `json:"results,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Failed returns the results that did not succeed.
func (r *Response) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if !res.Success {
			failed = append(failed, res)
		}
	}
	return failed
}

// Col builds a plain column selector.
func Col(name string) Field {
	return Field{Field: FieldName{Name: name}}
}

// RefCol builds a lookup column expanded with the referenced record's field.
func RefCol(name, referenced string) Field {
	return Field{
		Field:          FieldName{Name: name},
		ReferenceField: &Reference{Field: FieldName{Name: referenced}},
	}
}
