package handlebars

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

/* Helpers report failures by panicking with an error
 * raymond recovers those panics and returns them from Exec
 */

var errHelper = errors.New("helper failed")

func helperError(name, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", errHelper, name, fmt.Sprintf(format, args...))
}

// jsonPathHelper extracts path from a JSON document
func jsonPathHelper(document any, path any) string {
	src := stringify(document)
	if strings.TrimSpace(src) == "" {
		panic(helperError("jsonPath", "document is empty"))
	}

	var data any
	if err := json.Unmarshal([]byte(src), &data); err != nil {
		panic(helperError("jsonPath", "document is not valid JSON: %v", err))
	}

	value, err := jsonpath.Get(stringify(path), data)
	if err != nil {
		panic(helperError("jsonPath", "evaluating %q: %v", stringify(path), err))
	}
	return stringify(value)
}

// mathHelper applies op to two numeric operands
func mathHelper(left any, op any, right any) string {
	a, err := number(left)
	if err != nil {
		panic(helperError("math", "left operand: %v", err))
	}
	b, err := number(right)
	if err != nil {
		panic(helperError("math", "right operand: %v", err))
	}

	var result float64
	switch stringify(op) {
	case "+":
		result = a + b
	case "-":
		result = a - b
	case "*", "x":
		result = a * b
	case "/":
		if b == 0 {
			panic(helperError("math", "division by zero"))
		}
		result = a / b
	case "%":
		if b == 0 {
			panic(helperError("math", "division by zero"))
		}
		result = math.Mod(a, b)
	default:
		panic(helperError("math", "unknown operator %q", stringify(op)))
	}
	return formatNumber(result)
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return strconv.ParseFloat(strings.TrimSpace(stringify(v)), 64)
	}
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// stringify renders a value the way it should appear in a resolved field
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatNumber(t)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		out, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(out)
	}
}
