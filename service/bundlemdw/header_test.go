package bundlemdw

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitTestHeaderLookupIgnoresCase(t *testing.T) {
	header := Header{{Name: "x-Custom-KEY", Value: "one"}}

	assert.True(t, header.Has("X-Custom-Key"))
	assert.Equal(t, "one", header.Get("x-custom-key"))
	assert.False(t, header.Has("Accept"))
	assert.Equal(t, "", header.Get("Accept"))
}

func TestUnitTestHeaderSetPreservesCasingAndPosition(t *testing.T) {
	header := Header{
		{Name: "cookie", Value: "a=b"},
		{Name: "Accept", Value: "text/html"},
		{Name: "COOKIE", Value: "c=d"},
	}

	header.Set("Cookie", "sid=42")

	require.Equal(t, Header{
		{Name: "cookie", Value: "sid=42"},
		{Name: "Accept", Value: "text/html"},
	}, header)

	header.Set("X-New", "v")
	require.Equal(t, HeaderField{Name: "X-New", Value: "v"}, header[2])
}

func TestUnitTestHeaderDelAndClone(t *testing.T) {
	header := Header{
		{Name: "content-type", Value: "text/plain"},
		{Name: "X-A", Value: "1"},
		{Name: "Content-Type", Value: "text/html"},
	}

	clone := header.Clone()
	clone.Del("Content-Type")

	require.Equal(t, Header{{Name: "X-A", Value: "1"}}, clone)
	require.Len(t, header, 3, "deleting from a clone must not touch the original")
	require.Nil(t, Header(nil).Clone())
}

func TestUnitTestHeaderFromHTTPOrdersByName(t *testing.T) {
	h := http.Header{}
	h.Set("X-B", "b")
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")
	h.Set("Content-Type", "application/json")

	header := HeaderFromHTTP(h)

	require.Equal(t, "Content-Type: application/json\r\nSet-Cookie: a=1\r\nSet-Cookie: b=2\r\nX-B: b", header.String())
	require.Equal(t, "", Header{}.String())
}
