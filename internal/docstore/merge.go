package docstore

// mergeInto returns dst with src deep-merged on top. dst is not modified.
func mergeInto(dst, src Document) Document {
	out := Clone(dst)
	if out == nil {
		out = Document{}
	}
	for k, v := range src {
		srcMap, srcIsMap := asMap(v)
		dstMap, dstIsMap := asMap(out[k])
		if srcIsMap && dstIsMap {
			out[k] = map[string]any(mergeInto(dstMap, srcMap))
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func asMap(v any) (Document, bool) {
	switch m := v.(type) {
	case map[string]any:
		return Document(m), true
	case Document:
		return m, true
	}
	return nil, false
}

// Clone deep-copies d so callers can mutate the result freely.
func Clone(d Document) Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Clone(Document(t)))
	case Document:
		return map[string]any(Clone(t))
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
