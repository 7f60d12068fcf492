package typing

import "iter"

// ordered is an insertion-ordered string-keyed map. The zero value is empty
// and ready to use.
type ordered[V any] struct {
	keys []string
	vals map[string]V
}

func (o *ordered[V]) set(key string, v V) {
	if o.vals == nil {
		o.vals = make(map[string]V)
	}

	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.vals[key] = v
}

func (o *ordered[V]) get(key string) (V, bool) {
	v, ok := o.vals[key]

	return v, ok
}

func (o *ordered[V]) has(key string) bool {
	_, ok := o.vals[key]

	return ok
}

func (o *ordered[V]) len() int { return len(o.keys) }

func (o *ordered[V]) all() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range o.keys {
			if !yield(k, o.vals[k]) {
				return
			}
		}
	}
}

func (o *ordered[V]) values() []V {
	out := make([]V, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.vals[k])
	}

	return out
}
