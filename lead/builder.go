package lead

// Builder accumulates fields for a Record. A Builder is not safe for
// concurrent use; the Record it builds is.
type Builder struct {
	fields []Field
	index  map[string]int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Set stores value under key. Setting an existing key replaces its value in place.
func (b *Builder) Set(key, value string) *Builder {
	if i, ok := b.index[key]; ok {
		b.fields[i].Value = value
		return b
	}
	b.index[key] = len(b.fields)
	b.fields = append(b.fields, Field{Key: key, Value: value})
	return b
}

// SetOptional stores value under key unless value is empty.
func (b *Builder) SetOptional(key, value string) *Builder {
	if value == "" {
		return b
	}
	return b.Set(key, value)
}

// Build returns the Record. Later changes to the Builder do not affect it.
func (b *Builder) Build() *Record {
	fields := make([]Field, len(b.fields))
	copy(fields, b.fields)
	index := make(map[string]int, len(b.index))
	for k, v := range b.index {
		index[k] = v
	}
	return &Record{fields: fields, index: index}
}
