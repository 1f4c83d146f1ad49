package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexBool decodes the vendor's status flags, which arrive as JSON booleans,
// 0/1 numbers or quoted strings depending on the endpoint.
type FlexBool bool

func (b FlexBool) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatBool(bool(b))), nil
}

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	v, err := parseFlag(data)
	if err != nil {
		return err
	}
	*b = FlexBool(v)
	return nil
}

func (b FlexBool) Bool() bool {
	return bool(b)
}

// parseFlag accepts the spellings Postgres accepts for booleans plus numbers.
func parseFlag(data []byte) (bool, error) {
	raw := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "null", "false", "f", "no", "n", "off", "0":
		return false, nil
	case "true", "t", "yes", "y", "on", "1":
		return true, nil
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n != 0, nil
	}
	return false, fmt.Errorf("invalid boolean value %s", string(data))
}

// parseText reads a string field that the vendor sometimes sends as a number.
func parseText(data json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		err := json.Unmarshal(trimmed, &s)
		return s, err
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		err := json.Unmarshal(trimmed, &n)
		return n.String(), err
	}
	return "", fmt.Errorf("invalid text value %s", string(data))
}

// recordFields decodes one record object field by field. Malformed values
// are reported through the returned error instead of failing the batch.
type recordFields struct {
	raw map[string]json.RawMessage
	err error
}

func newRecordFields(data []byte) *recordFields {
	f := &recordFields{}
	if err := json.Unmarshal(data, &f.raw); err != nil {
		f.err = fmt.Errorf("invalid record: %w", err)
	}
	return f
}

func (f *recordFields) text(name string) string {
	if f.err != nil {
		return ""
	}
	s, err := parseText(f.raw[name])
	if err != nil {
		f.err = fmt.Errorf("field %s: %w", name, err)
	}
	return s
}

func (f *recordFields) flag(name string) FlexBool {
	if f.err != nil {
		return false
	}
	raw, ok := f.raw[name]
	if !ok {
		return false
	}
	v, err := parseFlag(raw)
	if err != nil {
		f.err = fmt.Errorf("field %s: %w", name, err)
	}
	return FlexBool(v)
}
