package store

import (
	"bytes"
	"fmt"
	"time"

	"github.com/roach88/zerv/internal/ir"
)

// timeLayout is the stored form of created_at.
const timeLayout = time.RFC3339Nano

// marshalDocument serializes d to canonical JSON.
func marshalDocument(d ir.Document) (string, error) {
	v, err := d.Value()
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(data), nil
}

// unmarshalDocument parses a stored document.
func unmarshalDocument(data string) (ir.Document, error) {
	d, err := ir.DecodeJSON(bytes.NewReader([]byte(data)))
	if err != nil {
		return ir.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return d, nil
}

func marshalTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func unmarshalTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unmarshal created_at: %w", err)
	}
	return t, nil
}
