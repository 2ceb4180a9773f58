package importer

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// PrimaryRecord is one element of the my.ai.se JSON export.
type PrimaryRecord struct {
	ID           flexID     `json:"id"`
	Name         flexString `json:"företagsnamn"`
	Website      flexString `json:"hemsida"`
	Type         flexString `json:"typ"`
	Logo         flexString `json:"logotyp"`
	Description  flexString `json:"beskrivning"`
	Owner        flexString `json:"ägare"`
	Maturity     flexString `json:"mognadsgrad"`
	Sectors      stringList `json:"sektor"`
	Domains      stringList `json:"domän"`
	Capabilities stringList `json:"ai_förmågor"`
	Dimensions   stringList `json:"dimension"`
}

// DecodePrimaryRecord decodes one export element and checks its id.
func DecodePrimaryRecord(raw json.RawMessage) (*PrimaryRecord, error) {
	var rec PrimaryRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, eris.Wrap(err, "importer: decode record")
	}
	if !rec.ID.set {
		return nil, eris.New("importer: record has no id")
	}
	return &rec, nil
}

// flexID accepts a JSON number or a numeric string.
type flexID struct {
	value int64
	set   bool
}

func (f *flexID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return eris.Wrap(err, "importer: id")
		}
	} else {
		s = string(b)
	}
	s = strings.TrimSpace(s)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		f.value, f.set = n, true
		return nil
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil && fl == math.Trunc(fl) && !math.IsInf(fl, 0) {
		// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
		if fl < math.MinInt64 || fl >= math.MaxInt64 {
			return eris.Errorf("importer: id %s out of range", string(b))
		}
		f.value, f.set = int64(fl), true
		return nil
	}
	return eris.Errorf("importer: invalid id %s", string(b))
}

// Value returns the parsed id.
func (f flexID) Value() int64 { return f.value }

// flexString accepts a string, number or bool; null stays empty.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s, err := scalarText(b)
	if err != nil {
		return err
	}
	*f = flexString(s)
	return nil
}

func (f flexString) String() string { return strings.TrimSpace(string(f)) }

// stringList accepts an array of scalars or a single scalar. Blank entries
// are dropped.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}

	if b[0] != '[' {
		s, err := scalarText(b)
		if err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			*l = stringList{s}
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return eris.Wrap(err, "importer: list field")
	}
	out := make(stringList, 0, len(items))
	for _, item := range items {
		s, err := scalarText(item)
		if err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

func scalarText(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		return "", nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", eris.Wrap(err, "importer: string field")
		}
		return s, nil
	case b[0] == '{' || b[0] == '[':
		return "", eris.Errorf("importer: expected a scalar, got %s", string(b))
	default:
		// numbers and booleans keep their literal form
		return string(b), nil
	}
}
