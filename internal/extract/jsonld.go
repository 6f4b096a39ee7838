// internal/extract/jsonld.go
//
// JSON-LD decoding. Real-world JSON-LD blocks are frequently malformed
// (trailing commas, unescaped quotes, stray comments from templating
// engines); per spec §4.2 these must be dropped, not fatal, so every
// block is run through a tolerant repair pass before decoding.
package extract

import (
	"encoding/json"
	"strconv"

	"github.com/kaptinlin/jsonrepair"
)

// JSONLDObject is one decoded JSON-LD node, keyed by its "@type".
type JSONLDObject struct {
	Type string
	Data map[string]any
}

// ParseJSONLD decodes each raw JSON-LD block, repairing malformed JSON
// first. A block that still fails to decode after repair is dropped.
// A top-level @graph or JSON array is flattened into individual objects.
func ParseJSONLD(blocks []string) []JSONLDObject {
	var out []JSONLDObject
	for _, raw := range blocks {
		repaired, err := jsonrepair.JSONRepair(raw)
		if err != nil {
			continue
		}

		var generic any
		if err := json.Unmarshal([]byte(repaired), &generic); err != nil {
			continue
		}

		out = append(out, flattenJSONLD(generic)...)
	}
	return out
}

func flattenJSONLD(v any) []JSONLDObject {
	switch val := v.(type) {
	case []any:
		var out []JSONLDObject
		for _, item := range val {
			out = append(out, flattenJSONLD(item)...)
		}
		return out
	case map[string]any:
		if graph, ok := val["@graph"]; ok {
			return flattenJSONLD(graph)
		}
		return []JSONLDObject{{Type: jsonLDType(val), Data: val}}
	default:
		return nil
	}
}

func jsonLDType(obj map[string]any) string {
	t, ok := obj["@type"]
	if !ok {
		return ""
	}
	switch v := t.(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// Price extracts a numeric price from a Product/Offer JSON-LD object,
// checking the common "offers.price" and "price" shapes. Returns
// (0, false) if no usable price is found.
func (o JSONLDObject) Price() (float64, bool) {
	if p, ok := numericField(o.Data, "price"); ok {
		return p, true
	}
	if offers, ok := o.Data["offers"]; ok {
		switch v := offers.(type) {
		case map[string]any:
			return numericField(v, "price")
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					if p, ok := numericField(m, "price"); ok {
						return p, true
					}
				}
			}
		}
	}
	return 0, false
}

func numericField(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
