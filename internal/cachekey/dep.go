package cachekey

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Fragments longer than this are replaced by a fixed-width hash token.
// Short fragments stay literal so keys remain debuggable.
const maxLiteralFragmentLength = 64

// The encoding's structural bytes never appear raw inside string payloads or
// record keys, so two different dependency lists cannot render to one key.
// 0x1f separates components of the memo key in Derive.
var payloadEscaper = strings.NewReplacer(
	"%", "%25",
	"&", "%26",
	",", "%2C",
	"=", "%3D",
	"[", "%5B",
	"]", "%5D",
	"{", "%7B",
	"}", "%7D",
	"\x1f", "%1F",
)

// Dep is a dependency value that distinguishes otherwise-identical
// operations (clinic ID, record ID, date range, ...). It is a closed set of
// variants so normalization is total: no runtime type sniffing, and absent
// is never confused with null.
type Dep struct {
	kind   depKind
	bool   bool
	int    int64
	float  float64
	string string
	list   []Dep
	record map[string]Dep
}

type depKind int

const (
	depAbsent depKind = iota
	depNull
	depBool
	depInt
	depFloat
	depString
	depList
	depRecord
)

// Absent marks a dependency slot with no value.
// Distinct from Null: a missing record ID and an explicitly-null record ID
// must never share a cache entry.
func Absent() Dep {
	return Dep{kind: depAbsent}
}

func Null() Dep {
	return Dep{kind: depNull}
}

func Bool(value bool) Dep {
	return Dep{kind: depBool, bool: value}
}

func Int(value int64) Dep {
	return Dep{kind: depInt, int: value}
}

func Float(value float64) Dep {
	return Dep{kind: depFloat, float: value}
}

func String(value string) Dep {
	return Dep{kind: depString, string: value}
}

// List is normalized order-independently: List(Int(1), Int(2)) and
// List(Int(2), Int(1)) produce the same key fragment.
func List(elements ...Dep) Dep {
	return Dep{kind: depList, list: elements}
}

// Record is normalized by sorted key, so insertion order does not matter.
func Record(fields map[string]Dep) Dep {
	return Dep{kind: depRecord, record: fields}
}

func (d Dep) encode() string {
	switch d.kind {
	case depAbsent:
		return "<absent>"
	case depNull:
		return "<null>"
	case depBool:
		return "b:" + strconv.FormatBool(d.bool)
	case depInt:
		return "i:" + strconv.FormatInt(d.int, 10)
	case depFloat:
		return "f:" + strconv.FormatFloat(d.float, 'g', -1, 64)
	case depString:
		return "s:" + payloadEscaper.Replace(d.string)
	case depList:
		encoded := make([]string, len(d.list))
		for i, element := range d.list {
			encoded[i] = element.encode()
		}
		slices.Sort(encoded)
		return "l:[" + strings.Join(encoded, ",") + "]"
	case depRecord:
		keys := make([]string, 0, len(d.record))
		for key := range d.record {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		fields := make([]string, len(keys))
		for i, key := range keys {
			fields[i] = payloadEscaper.Replace(key) + "=" + d.record[key].encode()
		}
		return "r:{" + strings.Join(fields, ",") + "}"
	default:
		panic(fmt.Sprintf("logic error: unknown dep kind %d", d.kind))
	}
}

func (d Dep) fragment() string {
	encoded := d.encode()
	if len(encoded) <= maxLiteralFragmentLength {
		return encoded
	}
	return "h:" + strconv.FormatUint(xxhash.Sum64String(encoded), 16)
}
