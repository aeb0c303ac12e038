package ir

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Encodings of a document.
const (
	EncodingJSON = "json"
	EncodingYAML = "yaml"
)

// DecodeJSON reads a JSON document. Unknown keys are rejected and custom
// numbers keep their exact text.
func DecodeJSON(r io.Reader) (Document, error) {
	var d Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decode zerv document: %w", err)
	}
	return d, nil
}

// DecodeYAML reads a YAML document. Unknown keys are rejected.
func DecodeYAML(r io.Reader) (Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return Document{}, fmt.Errorf("decode zerv document: %w", err)
	}
	return d, nil
}

// Decode reads a document in either encoding. Input whose first
// non-space byte is '{' is JSON.
func Decode(r io.Reader) (Document, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err != nil {
			return Document{}, fmt.Errorf("decode zerv document: empty input")
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
			continue
		case '{':
			return DecodeJSON(br)
		}
		return DecodeYAML(br)
	}
}

// Encode writes d as indented JSON or YAML, newline terminated.
func Encode(d Document, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingJSON, "":
		data, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode zerv document: %w", err)
		}
		return append(data, '\n'), nil
	case EncodingYAML:
		out := d
		out.Vars.Custom = plainCustom(d.Vars.Custom)
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return nil, fmt.Errorf("encode zerv document: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode zerv document: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("unknown document encoding %q", encoding)
}

// plainCustom replaces json.Number leaves with Go numbers so YAML writes
// them unquoted.
func plainCustom(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			return n
		}
		if n, err := strconv.ParseUint(val.String(), 10, 64); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		return plainCustom(val)
	case []any:
		arr := make([]any, len(val))
		for i, e := range val {
			arr[i] = plainValue(e)
		}
		return arr
	}
	return v
}
