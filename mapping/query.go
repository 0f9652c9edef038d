package mapping

import "fmt"

// Query is a query produced by a field.
type Query interface {
	Field() string
	String() string
}

// ExistsQuery matches documents that have a value for the field.
type ExistsQuery struct {
	FieldName string
}

func (q ExistsQuery) Field() string { return q.FieldName }

func (q ExistsQuery) String() string { return fmt.Sprintf("exists(%s)", q.FieldName) }

// FieldData describes doc values access for a field.
type FieldData struct {
	FieldName string
	Dimension int
}
