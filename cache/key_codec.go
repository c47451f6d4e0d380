package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator delimits the segments of a composite cache key.
const KeySeparator = "::"

// maxFilterSegment bounds the serialized-filter segment of a list key.
// Longer segments are replaced by an xxhash digest so keys stay short enough
// for backends with key-length limits while remaining deterministic.
const maxFilterSegment = 96

// KeyCodec derives the composite cache keys used by entity stores. Keys are
// stable and reconstructible: any caller holding the same namespace, scope,
// and filters derives the same key, which allows out-of-band cache
// population before a consumer asks for the data.
type KeyCodec interface {
	// ListKey derives the key for a paginated list read. Filters are
	// normalized first: nil values are dropped and map ordering is
	// irrelevant, so structurally equal filter sets share one key.
	ListKey(namespace, scope string, filters map[string]any) string

	// ItemKey derives the key for a single-entity read.
	ItemKey(namespace, id string) string

	// ListPrefix returns the prefix shared by every list key in the
	// namespace, used for namespace-wide invalidation.
	ListPrefix(namespace string) string
}

type defaultKeyCodec struct{}

// NewDefaultKeyCodec returns the standard key codec.
func NewDefaultKeyCodec() KeyCodec {
	return defaultKeyCodec{}
}

func (c defaultKeyCodec) ListKey(namespace, scope string, filters map[string]any) string {
	segment := c.serializeFilters(filters)
	if len(segment) > maxFilterSegment {
		segment = fmt.Sprintf("x%016x", xxhash.Sum64String(segment))
	}
	return strings.Join([]string{namespace, "list", scope, segment}, KeySeparator)
}

func (c defaultKeyCodec) ItemKey(namespace, id string) string {
	return strings.Join([]string{namespace, "item", id}, KeySeparator)
}

func (c defaultKeyCodec) ListPrefix(namespace string) string {
	return namespace + KeySeparator + "list" + KeySeparator
}

// serializeFilters renders a filter bag as "k=v" pairs with sorted keys.
// Nil values are stripped before serialization so an absent filter and an
// explicitly-nil filter produce the same key.
func (c defaultKeyCodec) serializeFilters(filters map[string]any) string {
	if len(filters) == 0 {
		return ""
	}

	keys := make([]string, 0, len(filters))
	for k, v := range filters {
		if v == nil {
			continue
		}
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+c.serializeValue(filters[k]))
	}
	return strings.Join(pairs, ",")
}

// serializeValue renders a single filter value deterministically. Collection
// types are walked recursively with map keys sorted; anything exotic falls
// back to JSON.
func (c defaultKeyCodec) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}
	// Stringer covers opaque struct types like time.Time whose exported
	// surface says nothing about their value.
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return c.serializeValue(rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts[i] = c.serializeValue(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, " ") + "]"

	case reflect.Map:
		type pair struct{ k, v string }
		pairs := make([]pair, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, pair{
				k: c.serializeValue(iter.Key().Interface()),
				v: c.serializeValue(iter.Value().Interface()),
			})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })
		rendered := make([]string, len(pairs))
		for i, p := range pairs {
			rendered[i] = p.k + ":" + p.v
		}
		return "{" + strings.Join(rendered, " ") + "}"

	case reflect.Struct:
		rt := rv.Type()
		parts := make([]string, 0, rt.NumField())
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			parts = append(parts, field.Name+":"+c.serializeValue(rv.Field(i).Interface()))
		}
		return "{" + strings.Join(parts, " ") + "}"

	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return fmt.Sprintf("%v", v)

	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("opaque:%s", rv.Type())
		}
		return string(data)
	}
}
