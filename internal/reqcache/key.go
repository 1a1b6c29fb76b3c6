package reqcache

import (
	"encoding/json"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Prefix namespaces every key the cache writes to its storage.
const Prefix = "eysh_cache:"

// Key composes the storage key for a request:
//
//	eysh_cache:<METHOD>:<url>?<params>|<auth>
//
// params and auth go through StableString; a blank value renders empty.
func Key(method, rawURL string, params any, auth string) string {
	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString(method)
	b.WriteByte(':')
	b.WriteString(rawURL)
	b.WriteByte('?')
	if !blank(params) {
		b.WriteString(StableString(params))
	}
	b.WriteByte('|')
	b.WriteString(auth)
	return b.String()
}

// StableString serializes v so that logically equal values render equally
// regardless of map iteration order. Maps render as {k:v,...} with sorted
// keys, slices keep their order as [a,b], nil renders as the empty string and
// everything else renders as its plain string form. Structs are first
// normalized through their JSON encoding.
func StableString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case json.RawMessage:
		return stableJSON(t)
	case url.Values:
		return stableValue(reflect.ValueOf(map[string][]string(t)))
	}
	return stableValue(reflect.ValueOf(v))
}

func stableValue(rv reflect.Value) string {
	if !rv.IsValid() {
		return ""
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return ""
		}
		return StableString(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return ""
		}
		entries := make(map[string]string, rv.Len())
		names := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			name := fmt.Sprint(iter.Key().Interface())
			names = append(names, name)
			entries[name] = StableString(iter.Value().Interface())
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, name := range names {
			parts[i] = name + ":" + entries[name]
		}
		return "{" + strings.Join(parts, ",") + "}"
	case reflect.Slice:
		if rv.IsNil() {
			return ""
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
		return stableList(rv)
	case reflect.Array:
		return stableList(rv)
	case reflect.Struct:
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return fmt.Sprint(rv.Interface())
		}
		return stableJSON(raw)
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64)
	}
	return fmt.Sprint(rv.Interface())
}

func stableList(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range rv.Len() {
		parts[i] = StableString(rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// stableJSON decodes raw into generic values and serializes those, so a
// struct and the equivalent map share a key.
func stableJSON(raw []byte) string {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return string(raw)
	}
	return StableString(generic)
}

// blank reports whether params should be left out of the key entirely.
func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	}
	return false
}
