package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type paramError struct {
	name string
	msg  string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("%s: %s", e.name, e.msg)
}

func intParam(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &paramError{name: name, msg: "must be an integer"}
	}
	if n < 0 {
		return 0, &paramError{name: name, msg: "must not be negative"}
	}
	return n, nil
}

// boolParam parses an optional flag. Returns nil when the parameter is absent.
func boolParam(q url.Values, name string) (*bool, error) {
	v := strings.ToLower(strings.TrimSpace(q.Get(name)))
	var b bool
	switch v {
	case "":
		return nil, nil
	case "1", "t", "true", "y", "yes":
		b = true
	case "0", "f", "false", "n", "no":
		b = false
	default:
		return nil, &paramError{name: name, msg: "must be a boolean"}
	}
	return &b, nil
}
