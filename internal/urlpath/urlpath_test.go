package urlpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected URL
	}{
		{
			name:     "single page",
			path:     "/home",
			expected: URL{{Page: "home", Params: map[string]string{}}},
		},
		{
			name: "nested pages",
			path: "/users/details",
			expected: URL{
				{Page: "users", Params: map[string]string{}},
				{Page: "details", Params: map[string]string{}},
			},
		},
		{
			name: "parameters per segment",
			path: "/users?tab=info&sort=name/details?id=42",
			expected: URL{
				{Page: "users", Params: map[string]string{"tab": "info", "sort": "name"}},
				{Page: "details", Params: map[string]string{"id": "42"}},
			},
		},
		{
			name:     "no leading delimiter",
			path:     "home?id=1",
			expected: URL{{Page: "home", Params: map[string]string{"id": "1"}}},
		},
		{
			name:     "encoded values",
			path:     "/search?q=a%20b%26c",
			expected: URL{{Page: "search", Params: map[string]string{"q": "a b&c"}}},
		},
		{
			name:     "alternative separators",
			path:     "/grid?a=1:b=2?c=3",
			expected: URL{{Page: "grid", Params: map[string]string{"a": "1", "b": "2", "c": "3"}}},
		},
		{
			name:     "missing value",
			path:     "/grid?flag",
			expected: URL{{Page: "grid", Params: map[string]string{"flag": ""}}},
		},
		{
			name:     "undecodable value kept",
			path:     "/grid?x=%zz",
			expected: URL{{Page: "grid", Params: map[string]string{"x": "%zz"}}},
		},
		{
			name:     "empty path",
			path:     "",
			expected: URL{{Page: "", Params: map[string]string{}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.path)
			assert.True(t, tt.expected.Equal(got), "expected %v, got %v", tt.expected, got)
		})
	}
}

func TestSerialize(t *testing.T) {
	u := URL{
		{Page: "users", Params: map[string]string{"sort": "name", "tab": "info"}},
		{Page: "details"},
	}
	assert.Equal(t, "/users?sort=name&tab=info/details", Serialize(u))
	assert.Equal(t, "/users?sort=name&tab=info/details", u.String())

	escaped := URL{{Page: "search", Params: map[string]string{"q": "a b&c/d"}}}
	assert.Equal(t, "/search?q=a+b%26c%2Fd", escaped.String())
}

func TestRoundTrip(t *testing.T) {
	paths := []string{
		"/home",
		"/a/b/c",
		"//a",
		"/",
		"",
		"/a?x=1&y=2/b?z=%2F",
		"/a?k=v=w",
		"/a?=v",
		"/a?x=%zz",
		"/a?x=1+2",
		"/?x=1",
		"/a:b/c",
	}

	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			parsed := Parse(p)
			again := Parse(Serialize(parsed))
			assert.True(t, parsed.Equal(again), "%q: %v != %v", p, parsed, again)
		})
	}
}

func TestParser_StartSubstitution(t *testing.T) {
	p := Parser{Start: "/home?tab=1"}

	for _, path := range []string{"", "/"} {
		got := p.Parse(path)
		require.Len(t, got, 1)
		assert.Equal(t, "home", got.Page())
		assert.Equal(t, "1", got[0].Params["tab"])
	}

	got := p.Parse("/other")
	assert.Equal(t, "other", got.Page())
}

func TestURL_Helpers(t *testing.T) {
	u := Parse("/a/b/c")
	assert.Equal(t, "a", u.Page())
	assert.Equal(t, "b", u.Tail().Page())
	assert.Len(t, u.Tail(), 2)
	assert.Nil(t, Parse("/a").Tail())
	assert.Equal(t, "", URL(nil).Page())

	seg := Segment{Page: "a", Params: map[string]string{"x": "1"}}
	clone := seg.Clone()
	clone.Params["x"] = "2"
	v, ok := seg.Param("x")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	assert.False(t, seg.Equal(clone))
}
