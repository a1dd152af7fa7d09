package signals

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// #region label-map

// LabelMap maps a model output index to its gloss label.
type LabelMap map[int]string

// ParseLabelMap decodes an id2label document ({"0":"HELLO",...}).
// Keys that are not integers and values that are not strings are skipped.
func ParseLabelMap(data []byte) (LabelMap, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode id2label: %w", err)
	}
	m := make(LabelMap, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		label, ok := v.(string)
		if !ok {
			continue
		}
		m[idx] = label
	}
	return m, nil
}

// LoadLabelMap reads an id2label JSON file.
func LoadLabelMap(path string) (LabelMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read id2label: %w", err)
	}
	return ParseLabelMap(data)
}

// Label returns the label for idx, or "unknown(<idx>)".
func (m LabelMap) Label(idx int) string {
	if l, ok := m[idx]; ok {
		return l
	}
	return fmt.Sprintf("unknown(%d)", idx)
}

// #endregion label-map

// #region top2

// Top2 holds the two most probable classes.
type Top2 struct {
	I1 int
	P1 float32
	I2 int
	P2 float32
}

// #endregion top2
