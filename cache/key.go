package cache

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Key identifies a cached response by request URL and the ordered primitive
// values the response depends on. Keys compare field by field; String gives
// the map identity used by Store.
type Key struct {
	url   string
	parts []part
}

// part is one dependency reduced to a type tag and its canonical text.
// The tag keeps 1, 1.0, "1" and true from ever sharing a key.
type part struct {
	tag byte
	val string
}

const (
	tagNil    = 'n'
	tagBool   = 'b'
	tagInt    = 'i'
	tagUint   = 'u'
	tagFloat  = 'f'
	tagString = 's'
)

// NewKey builds a Key from url and deps. Dependencies must be primitives
// (nil, bool, integers, floats, strings or named types over them). When
// unordered is true the dependency order is not significant.
func NewKey(url string, deps []any, unordered bool) (Key, error) {
	parts := make([]part, 0, len(deps))
	for i, d := range deps {
		p, err := toPart(d)
		if err != nil {
			return Key{}, fmt.Errorf("dependency %d: %w", i, err)
		}
		parts = append(parts, p)
	}
	if unordered {
		slices.SortFunc(parts, func(a, b part) int {
			if a.tag != b.tag {
				return int(a.tag) - int(b.tag)
			}
			return strings.Compare(a.val, b.val)
		})
	}
	return Key{url: url, parts: parts}, nil
}

// MustKey is NewKey for callers with statically known dependencies.
func MustKey(url string, deps ...any) Key {
	k, err := NewKey(url, deps, false)
	if err != nil {
		panic(err)
	}
	return k
}

func toPart(d any) (part, error) {
	if d == nil {
		return part{tag: tagNil}, nil
	}
	v := reflect.ValueOf(d)
	switch v.Kind() {
	case reflect.Bool:
		return part{tag: tagBool, val: strconv.FormatBool(v.Bool())}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return part{tag: tagInt, val: strconv.FormatInt(v.Int(), 10)}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return part{tag: tagUint, val: strconv.FormatUint(v.Uint(), 10)}, nil
	case reflect.Float32, reflect.Float64:
		return part{tag: tagFloat, val: strconv.FormatFloat(v.Float(), 'g', -1, 64)}, nil
	case reflect.String:
		return part{tag: tagString, val: v.String()}, nil
	default:
		return part{}, fmt.Errorf("unsupported type %T", d)
	}
}

// URL returns the request URL the key was built from.
func (k Key) URL() string { return k.url }

// Len returns the number of dependencies in the key.
func (k Key) Len() int { return len(k.parts) }

// Equal reports whether both keys have the same URL and dependency sequence.
func (k Key) Equal(o Key) bool {
	return k.url == o.url && slices.Equal(k.parts, o.parts)
}

// String renders the key as an unambiguous string. Strings are quoted so a
// separator inside a value can never be mistaken for a boundary.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(strconv.Quote(k.url))
	b.WriteByte('[')
	for i, p := range k.parts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte(p.tag)
		switch p.tag {
		case tagNil:
		case tagString:
			b.WriteByte(':')
			b.WriteString(strconv.Quote(p.val))
		default:
			b.WriteByte(':')
			b.WriteString(p.val)
		}
	}
	b.WriteByte(']')
	return b.String()
}
