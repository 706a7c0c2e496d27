package pipeline

import (
	"fmt"
	"strings"
)

// MissingInputError reports a required upstream file that does not exist yet.
type MissingInputError struct {
	Path       string
	ProducedBy string
}

func (e *MissingInputError) Error() string {
	if e.ProducedBy == "" {
		return fmt.Sprintf("required input %s does not exist", e.Path)
	}
	return fmt.Sprintf("required input %s does not exist: run %s first", e.Path, e.ProducedBy)
}

// SchemaError reports expected columns absent after a read, rename or merge.
type SchemaError struct {
	Source  string
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	found := e.Found
	if len(found) > 10 {
		found = found[:10]
	}
	return fmt.Sprintf("%s: missing columns [%s], found [%s]",
		e.Source, strings.Join(e.Missing, ", "), strings.Join(found, ", "))
}

// EmptyResultError reports a filter that yielded zero rows.
type EmptyResultError struct {
	Source string
	Hint   string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s: filter produced zero rows; %s", e.Source, e.Hint)
}
