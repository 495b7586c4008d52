// Package payload models registration documents as semi-structured values
// and reconstructs them from flat multipart form submissions.
//
// Documents deliberately stay map-based rather than fixed structs: the form
// carries arbitrary optional sections (married/divorced/remarried/widowed
// details, free-form extras) and the admin UI renders whatever keys are
// present with type-directed formatting.
package payload

import "strings"

// Document is a nested, JSON-like registration document.
type Document map[string]any

// Clone returns a deep copy of the document. Nested maps and slices are
// copied; scalar leaves are shared.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return deepCopyMap(d)
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return deepCopyMap(tv)
	case Document:
		return deepCopyMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}

// GetPath resolves a dot-separated path ("parentsInformation.fatherFirstName")
// against the document. The second result is false when any segment is
// missing or a non-object is encountered mid-path.
func (d Document) GetPath(path string) (any, bool) {
	var current any = map[string]any(d)
	for _, seg := range strings.Split(path, ".") {
		obj, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// GetString resolves a path to a string, returning "" for missing or
// non-string values.
func (d Document) GetString(path string) string {
	v, ok := d.GetPath(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetMap resolves a path to a nested object, returning nil when absent.
func (d Document) GetMap(path string) map[string]any {
	v, ok := d.GetPath(path)
	if !ok {
		return nil
	}
	m, _ := asMap(v)
	return m
}

// SetPath writes a value at a dot-separated path, creating intermediate
// objects as needed. Existing non-object intermediates are replaced.
func (d Document) SetPath(path string, value any) {
	segs := strings.Split(path, ".")
	current := map[string]any(d)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(current[seg])
		if !ok {
			next = map[string]any{}
			current[seg] = next
		}
		current = next
	}
	current[segs[len(segs)-1]] = value
}

// DeletePath removes the value at a dot-separated path, if present.
func (d Document) DeletePath(path string) {
	segs := strings.Split(path, ".")
	current := map[string]any(d)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(current[seg])
		if !ok {
			return
		}
		current = next
	}
	delete(current, segs[len(segs)-1])
}

// Merge recursively merges updates into base: object keys are unioned
// (recursing into both sides), anything else is overwritten by the incoming
// value. Neither input is mutated.
func Merge(base, updates map[string]any) map[string]any {
	result := map[string]any{}
	for k, v := range base {
		result[k] = deepCopyValue(v)
	}
	for k, v := range updates {
		if incoming, ok := asMap(v); ok {
			existing, _ := asMap(result[k])
			result[k] = Merge(existing, incoming)
			continue
		}
		result[k] = deepCopyValue(v)
	}
	return result
}

func asMap(v any) (map[string]any, bool) {
	switch tv := v.(type) {
	case map[string]any:
		return tv, true
	case Document:
		return map[string]any(tv), true
	default:
		return nil, false
	}
}
