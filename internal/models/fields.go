package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// fieldSet holds the raw members of a JSON object. Backend versions disagree on
// member names, so decoders look each logical field up through an ordered list
// of candidate names and take the first one that is present and not null.
type fieldSet struct {
	raw map[string]json.RawMessage
	err error
}

func decodeFieldSet(data []byte) (*fieldSet, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &fieldSet{raw: raw}, nil
}

func isNullJSON(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func (f *fieldSet) lookup(names []string) (string, json.RawMessage, bool) {
	for _, name := range names {
		raw, ok := f.raw[name]
		if !ok || isNullJSON(raw) {
			continue
		}
		return name, raw, true
	}
	return "", nil, false
}

// has reports whether any candidate is present and not null.
func (f *fieldSet) has(names ...string) bool {
	_, _, ok := f.lookup(names)
	return ok
}

// into decodes the first matching candidate into dst.
func (f *fieldSet) into(dst any, names ...string) bool {
	if f.err != nil {
		return false
	}
	name, raw, ok := f.lookup(names)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		f.err = fmt.Errorf("decoding %q: %w", name, err)
		return false
	}
	return true
}

func (f *fieldSet) str(dst *string, names ...string) bool {
	return f.into(dst, names...)
}

func (f *fieldSet) boolean(dst *bool, names ...string) bool {
	return f.into(dst, names...)
}

func (f *fieldSet) integer(dst *int, names ...string) bool {
	var v int64
	if !f.number(&v, names...) {
		return false
	}
	*dst = int(v)
	return true
}

// number accepts both JSON numbers and numeric strings; some endpoints quote ids.
func (f *fieldSet) number(dst *int64, names ...string) bool {
	if f.err != nil {
		return false
	}
	name, raw, ok := f.lookup(names)
	if !ok {
		return false
	}
	v, err := parseFlexibleInt(raw)
	if err != nil {
		f.err = fmt.Errorf("decoding %q: %w", name, err)
		return false
	}
	*dst = v
	return true
}

func (f *fieldSet) optionalNumber(dst **int64, names ...string) bool {
	var v int64
	if !f.number(&v, names...) {
		return false
	}
	*dst = &v
	return true
}

func (f *fieldSet) float(dst *float64, names ...string) bool {
	return f.into(dst, names...)
}

func parseFlexibleInt(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.ParseInt(n.String(), 10, 64)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not an integer: %s", raw)
	}
	return strconv.ParseInt(s, 10, 64)
}
