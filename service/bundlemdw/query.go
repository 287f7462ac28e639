package bundlemdw

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// MakeQuery serializes a JSON object into a query string.
// List values expand to one pair per element, keys keep the object's own order
// and every key and value is encoded with EncodeURIComponent.
// Anything other than an object or a list yields "".
func MakeQuery(dict gjson.Result) string {
	if !dict.IsObject() && !dict.IsArray() {
		return ""
	}

	pairs := []string{}
	appendPair := func(key string, value gjson.Result) {
		pairs = append(pairs, EncodeURIComponent(key)+"="+EncodeURIComponent(StringValue(value)))
	}

	index := 0
	dict.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		// lists iterate without keys, their positions act as the names
		if dict.IsArray() {
			name = strconv.Itoa(index)
			index++
		}

		if value.IsArray() {
			value.ForEach(func(_, element gjson.Result) bool {
				appendPair(name, element)
				return true
			})
			return true
		}

		appendPair(name, value)
		return true
	})

	return strings.Join(pairs, "&")
}

// uriUnreserved lists the bytes EncodeURIComponent leaves as they are
const uriUnreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.!~*'()"

// EncodeURIComponent percent-encodes every byte of s outside of the
// unreserved set A-Z a-z 0-9 - _ . ! ~ * ' ( )
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(uriUnreserved, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}

	return b.String()
}

// StringValue converts a JSON value to text the way the gateway's clients expect
// values to be stringified: numbers in shortest form, objects as "[object Object]"
// and lists as their comma joined elements
func StringValue(value gjson.Result) string {
	switch value.Type {
	case gjson.String:
		return value.Str
	case gjson.Number:
		return numberString(value.Num)
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Null:
		return "null"
	case gjson.JSON:
		if value.IsArray() {
			elements := []string{}
			value.ForEach(func(_, element gjson.Result) bool {
				// null elements of a joined list print as nothing
				if element.Type == gjson.Null {
					elements = append(elements, "")
				} else {
					elements = append(elements, StringValue(element))
				}
				return true
			})
			return strings.Join(elements, ",")
		}
		return "[object Object]"
	}

	return ""
}

func numberString(f float64) string {
	if f == 0 {
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e-7 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	// exponents print without zero padding, e.g. 1e-7 and 1e+21
	formatted := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exponent, _ := strings.Cut(formatted, "e")
	sign := exponent[:1]
	digits := strings.TrimLeft(exponent[1:], "0")

	return mantissa + "e" + sign + digits
}

// truthy reports whether a JSON value counts as supplied:
// absent values, null, false, 0 and "" do not
func truthy(value gjson.Result) bool {
	switch value.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.Number:
		return value.Num != 0
	case gjson.String:
		return value.Str != ""
	case gjson.True, gjson.JSON:
		return true
	}
	return false
}
