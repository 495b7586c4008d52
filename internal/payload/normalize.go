package payload

import (
	"encoding/base64"
	"regexp"
	"strings"
)

var dataURIRegex = regexp.MustCompile(`^data:(.+?);base64,(.+)$`)

// File is a binary upload taken from a multipart request, keyed by the
// dotted form-field path it was submitted under.
type File struct {
	Data         []byte
	MimeType     string
	OriginalName string
}

// imageObject is the uniform representation every uploaded or inlined image
// normalizes to inside a document.
func imageObject(data, mimeType, originalName string) map[string]any {
	return map[string]any{
		"data":         data,
		"mimeType":     mimeType,
		"originalName": originalName,
	}
}

// Assemble builds the final registration document from a parsed body and the
// uploaded files. Each file's dotted field path is split into parent path and
// leaf property; the resulting image object is deep-merged at the parent path
// so sibling fields already present there survive. Inline data-URIs anywhere
// in the body are converted to the same image-object shape, and the cleaning
// pass strips empty values last.
func Assemble(body Document, files map[string]File) Document {
	doc := body.Clone()
	if doc == nil {
		doc = Document{}
	}

	for fieldPath, file := range files {
		parts := strings.Split(fieldPath, ".")
		property := parts[len(parts)-1]
		parentPath := strings.Join(parts[:len(parts)-1], ".")

		img := imageObject(base64.StdEncoding.EncodeToString(file.Data), file.MimeType, file.OriginalName)

		if parentPath == "" {
			doc[property] = img
			continue
		}
		existing, _ := asMap(mustGet(doc, parentPath))
		doc.SetPath(parentPath, Merge(existing, map[string]any{property: img}))
	}

	normalized, _ := asMap(NormalizeDataURIs(map[string]any(doc)))
	return Clean(Document(normalized))
}

func mustGet(doc Document, path string) any {
	v, _ := doc.GetPath(path)
	return v
}

// ExpandFlat reconstructs a nested document from flat multipart text fields
// whose nesting is encoded with dot-separated keys
// ("parentsInformation.fatherFirstName" -> {parentsInformation:{fatherFirstName:...}}).
func ExpandFlat(fields map[string][]string) Document {
	doc := Document{}
	for key, values := range fields {
		if len(values) == 0 {
			continue
		}
		doc.SetPath(key, values[0])
	}
	return doc
}

// NormalizeDataURIs walks the value and replaces any string matching
// data:<mime>;base64,<data> with the uniform image-object shape. Objects and
// arrays are traversed; everything else passes through unchanged.
func NormalizeDataURIs(input any) any {
	switch tv := input.(type) {
	case []any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = NormalizeDataURIs(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, v := range tv {
			out[k] = NormalizeDataURIs(v)
		}
		return out
	case Document:
		return NormalizeDataURIs(map[string]any(tv))
	case string:
		if img := convertDataURI(tv); img != nil {
			return img
		}
		return tv
	default:
		return input
	}
}

func convertDataURI(value string) map[string]any {
	match := dataURIRegex.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return nil
	}
	mimeType, data := match[1], match[2]
	if mimeType == "" || data == "" {
		return nil
	}
	return imageObject(data, mimeType, "data-uri-upload")
}

// Clean applies the recursive cleaning pass to a document: empty strings,
// nils, the literal strings "null"/"undefined", and recursively-empty
// objects and arrays are dropped. Returns an empty document when everything
// is stripped. Clean is idempotent.
func Clean(doc Document) Document {
	cleaned, keep := cleanValue(map[string]any(doc))
	if !keep {
		return Document{}
	}
	m, _ := asMap(cleaned)
	return Document(m)
}

// cleanValue returns the cleaned value and whether it should be kept.
func cleanValue(data any) (any, bool) {
	switch tv := data.(type) {
	case []any:
		out := make([]any, 0, len(tv))
		for _, item := range tv {
			if cleaned, keep := cleanValue(item); keep {
				out = append(out, cleaned)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, v := range tv {
			cleaned, keep := cleanValue(v)
			if !keep {
				continue
			}
			out[k] = cleaned
		}
		if len(out) == 0 {
			return nil, false
		}
		return out, true
	case Document:
		return cleanValue(map[string]any(tv))
	case string:
		if tv == "" || tv == "null" || tv == "undefined" {
			return nil, false
		}
		return tv, true
	case nil:
		return nil, false
	default:
		return data, true
	}
}
