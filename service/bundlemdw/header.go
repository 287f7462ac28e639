package bundlemdw

import (
	"net/http"
	"sort"
	"strings"
)

// HeaderField is a single header line
type HeaderField struct {
	Name  string
	Value string
}

// Header is an ordered list of header fields.
// Lookups ignore case while the casing of stored names is left untouched.
type Header []HeaderField

// HeaderFromHTTP converts an http.Header into a Header ordered by name,
// one field per value
func HeaderFromHTTP(h http.Header) Header {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(Header, 0, len(names))
	for _, name := range names {
		for _, value := range h[name] {
			header = append(header, HeaderField{Name: name, Value: value})
		}
	}

	return header
}

// Get returns the value of the first field named name, or "" if there is none
func (h Header) Get(name string) string {
	for _, field := range h {
		if strings.EqualFold(field.Name, name) {
			return field.Value
		}
	}
	return ""
}

// Has reports whether a field named name is present
func (h Header) Has(name string) bool {
	for _, field := range h {
		if strings.EqualFold(field.Name, name) {
			return true
		}
	}
	return false
}

// Set replaces the value of the first field named name, dropping any later
// duplicates, or appends a new field when none exists
func (h *Header) Set(name, value string) {
	found := false
	fields := (*h)[:0]
	for _, field := range *h {
		if strings.EqualFold(field.Name, name) {
			if found {
				continue
			}
			found = true
			field.Value = value
		}
		fields = append(fields, field)
	}

	if !found {
		fields = append(fields, HeaderField{Name: name, Value: value})
	}

	*h = fields
}

// Del removes every field named name
func (h *Header) Del(name string) {
	fields := (*h)[:0]
	for _, field := range *h {
		if !strings.EqualFold(field.Name, name) {
			fields = append(fields, field)
		}
	}
	*h = fields
}

// Clone returns a copy of h that shares no storage with it
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	clone := make(Header, len(h))
	copy(clone, h)
	return clone
}

// String serializes the header as `Name: value` lines joined by CRLF
func (h Header) String() string {
	lines := make([]string, 0, len(h))
	for _, field := range h {
		lines = append(lines, field.Name+": "+field.Value)
	}
	return strings.Join(lines, "\r\n")
}
