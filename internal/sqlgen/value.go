package sqlgen

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/magicmcp/hub/pkg/model"
)

// sqlString renders a string as a quoted SQL literal. Absent values become a
// literal NULL, never an empty-string stand-in. Single quotes are doubled and
// backslashes escaped.
func sqlString(s string) string {
	if s == "" {
		return "NULL"
	}
	s = strings.ReplaceAll(s, `'`, `''`)
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + s + "'"
}

// sqlArray renders a string slice as an ARRAY[...] literal, NULL when empty.
func sqlArray(items []string) string {
	if len(items) == 0 {
		return "NULL"
	}
	escaped := make([]string, len(items))
	for i, item := range items {
		escaped[i] = sqlString(item)
	}
	return "ARRAY[" + strings.Join(escaped, ",") + "]"
}

// sqlTimestamp renders an ISO-8601 timestamp, normalized to UTC. Absent
// timestamps default to NOW(); unparseable ones pass through escaped so the
// database surfaces the problem instead of the emitter guessing.
func sqlTimestamp(ts string) string {
	if ts == "" {
		return "NOW()"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return sqlString(ts)
	}
	return sqlString(t.UTC().Format("2006-01-02T15:04:05.000Z"))
}

func marshalInstructions(instructions []model.Instruction) (string, error) {
	data, err := json.Marshal(instructions)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
