package bundlemdw

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestUnitTestMakeQuery(t *testing.T) {
	for _, tc := range []struct {
		name     string
		dict     string
		expected string
	}{
		{
			name:     "scalar values keep key order",
			dict:     `{"b":2,"a":"x"}`,
			expected: "b=2&a=x",
		},
		{
			name:     "list values expand to one pair per element",
			dict:     `{"id":[1,2,3],"q":"v"}`,
			expected: "id=1&id=2&id=3&q=v",
		},
		{
			name:     "keys and values are percent encoded",
			dict:     `{"c d":"x&y=z","é":"/"}`,
			expected: "c%20d=x%26y%3Dz&%C3%A9=%2F",
		},
		{
			name:     "non string values are stringified",
			dict:     `{"t":true,"f":false,"n":null,"o":{"k":1},"num":1.50}`,
			expected: "t=true&f=false&n=null&o=%5Bobject%20Object%5D&num=1.5",
		},
		{
			name:     "lists use positions as keys",
			dict:     `["a","b"]`,
			expected: "0=a&1=b",
		},
		{
			name:     "empty object",
			dict:     `{}`,
			expected: "",
		},
		{
			name:     "string is not a mapping",
			dict:     `"a=1"`,
			expected: "",
		},
		{
			name:     "absent",
			dict:     ``,
			expected: "",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, MakeQuery(gjson.Parse(tc.dict)))
		})
	}
}

func TestUnitTestEncodeURIComponent(t *testing.T) {
	require.Equal(t, "AZaz09-_.!~*'()", EncodeURIComponent("AZaz09-_.!~*'()"))
	require.Equal(t, "a%20b%2Bc%26d%3De%3Ff%23g%2Fh", EncodeURIComponent("a b+c&d=e?f#g/h"))
	require.Equal(t, "%E2%82%AC%C3%A9", EncodeURIComponent("€é"))
	require.Equal(t, "", EncodeURIComponent(""))
}

func TestUnitTestStringValue(t *testing.T) {
	for _, tc := range []struct {
		raw      string
		expected string
	}{
		{raw: `"text"`, expected: "text"},
		{raw: `42`, expected: "42"},
		{raw: `-0`, expected: "0"},
		{raw: `1.0`, expected: "1"},
		{raw: `0.000001`, expected: "0.000001"},
		{raw: `1e-7`, expected: "1e-7"},
		{raw: `123e18`, expected: "123000000000000000000"},
		{raw: `1e21`, expected: "1e+21"},
		{raw: `true`, expected: "true"},
		{raw: `false`, expected: "false"},
		{raw: `null`, expected: "null"},
		{raw: `{"a":1}`, expected: "[object Object]"},
		{raw: `[1,[2,3],null,"x"]`, expected: "1,2,3,,x"},
		{raw: `[]`, expected: ""},
	} {
		t.Run(tc.raw, func(t *testing.T) {
			require.Equal(t, tc.expected, StringValue(gjson.Parse(tc.raw)))
		})
	}
}

func TestUnitTestTruthy(t *testing.T) {
	for raw, expected := range map[string]bool{
		``:        false,
		`null`:    false,
		`false`:   false,
		`0`:       false,
		`""`:      false,
		`true`:    true,
		`1`:       true,
		`"0"`:     true,
		`{}`:      true,
		`[]`:      true,
		`{"a":1}`: true,
	} {
		require.Equal(t, expected, truthy(gjson.Parse(raw)), raw)
	}
}
