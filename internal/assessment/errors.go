package assessment

import "fmt"

// ValidationError reports a single malformed field. The authoring surface
// shows these per field, so Field uses dotted/indexed paths like
// "questions[1].correct_choice".
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}
