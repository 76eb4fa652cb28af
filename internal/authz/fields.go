package authz

import "strings"

// Field is a task attribute an update may touch.
type Field uint8

const (
	FieldTitle Field = 1 << iota
	FieldDescription
	FieldStatus
	FieldPriority
	FieldAssignee
	FieldDueDate
)

var fieldNames = []struct {
	field Field
	name  string
}{
	{FieldTitle, "title"},
	{FieldDescription, "description"},
	{FieldStatus, "status"},
	{FieldPriority, "priority"},
	{FieldAssignee, "assigned_to"},
	{FieldDueDate, "due_date"},
}

// FieldSet is a set of task fields.
type FieldSet uint8

// Fields builds a set from individual fields.
func Fields(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s |= FieldSet(f)
	}
	return s
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool {
	return s&FieldSet(f) != 0
}

// Within reports whether every field in s is one of allowed.
func (s FieldSet) Within(allowed ...Field) bool {
	return s&^Fields(allowed...) == 0
}

// Empty reports whether the set holds no fields.
func (s FieldSet) Empty() bool {
	return s == 0
}

func (s FieldSet) String() string {
	names := make([]string, 0, len(fieldNames))
	for _, fn := range fieldNames {
		if s.Has(fn.field) {
			names = append(names, fn.name)
		}
	}
	return "{" + strings.Join(names, ",") + "}"
}
