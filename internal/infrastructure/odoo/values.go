package odoo

// The remote API reports an unset field as boolean false rather than null,
// and many2one references as a [id, display_name] pair. These helpers decode
// that shape into plain Go values.

// asString decodes a string field, treating false/nil as empty
func asString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// asFloat decodes a numeric field, treating false/nil as zero
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// asInt64 decodes an integer field, treating false/nil as zero
func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// many2oneID decodes the id half of a [id, name] reference; ok is false when
// the field is unset
func many2oneID(v any) (int64, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) < 1 {
		return 0, false
	}
	return asInt64(pair[0]), true
}

// many2oneName decodes the display-name half of a [id, name] reference
func many2oneName(v any) string {
	pair, ok := v.([]any)
	if !ok || len(pair) < 2 {
		return ""
	}
	return asString(pair[1])
}

// asInt64Slice decodes a list of record ids
func asInt64Slice(v any) []int64 {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(raw))
	for _, item := range raw {
		ids = append(ids, asInt64(item))
	}
	return ids
}
