// Package expand renders server diagnostic templates.
//
// Recognized forms:
//
//	%name%                          value of name
//	%%                              a literal %
//	%'text'%                        text, uninspected
//	[stuff %name% more|alternate]   stuff+value+more, or alternate when empty
//
// Malformed input is never an error: the unconsumed remainder is copied
// through unchanged.
package expand

import "strings"

// Lookup resolves a variable name. Unknown names should resolve to "".
type Lookup func(name string) string

// MapLookup resolves names from a map.
func MapLookup(values map[string]string) Lookup {
	return func(name string) string {
		return values[name]
	}
}

func Expand(m string, lookup Lookup) string {
	var o strings.Builder
	o.Grow(len(m))

	// (p)text (r)[ stuff (q)%var(s)% stuff2 (t)]
	p := 0
	for {
		q := indexFrom(m, '%', p)
		if q < 0 {
			break
		}

		if q+1 < len(m) && m[q+1] == '\'' {
			s := strings.Index(m[q+2:], "'%")
			if s < 0 {
				// %'junk
				break
			}
			s += q + 2
			o.WriteString(m[p:q])
			o.WriteString(m[q+2 : s])
			p = s + 2
			continue
		}

		s := indexFrom(m, '%', q+1)
		if s < 0 {
			// %junk
			break
		}
		if s == q+1 {
			// %% emits the first percent; [ %% ] is not special
			o.WriteString(m[p:s])
			p = s + 1
			continue
		}

		val := lookup(m[q+1 : s])

		r := strings.IndexByte(m[p:q], '[')
		if r < 0 {
			o.WriteString(m[p:q])
			o.WriteString(val)
			p = s + 1
			continue
		}
		r += p

		t := indexFrom(m, ']', s+1)
		if t < 0 {
			// [ junk
			break
		}

		o.WriteString(m[p:r])

		v := strings.IndexByte(m[s:t], '|')
		if v < 0 {
			v = t
		} else {
			v += s
		}

		if val != "" {
			o.WriteString(m[r+1 : q])
			o.WriteString(val)
			o.WriteString(m[s+1 : v])
		} else if v < t {
			o.WriteString(m[v+1 : t])
		}
		p = t + 1
	}

	o.WriteString(m[p:])
	return o.String()
}

func indexFrom(s string, c byte, from int) int {
	if from >= len(s) {
		return -1
	}
	i := strings.IndexByte(s[from:], c)
	if i < 0 {
		return -1
	}
	return i + from
}
