package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBool(t *testing.T) {
	cases := map[string]bool{
		`true`:     true,
		`"true"`:   true,
		`" true "`: true,
		`false`:    false,
		`"false"`:  false,
		`"yes"`:    false,
		`null`:     false,
	}
	for raw, want := range cases {
		var b Bool
		require.NoError(t, json.Unmarshal([]byte(raw), &b), raw)
		assert.Equal(t, want, bool(b), raw)
	}

	var b Bool
	assert.Error(t, json.Unmarshal([]byte(`7`), &b))
}

func TestOptionalBool(t *testing.T) {
	var v struct {
		A OptionalBool `json:"a"`
		B OptionalBool `json:"b"`
		C OptionalBool `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"false","b":true}`), &v))
	require.NotNil(t, v.A.Ptr())
	assert.False(t, *v.A.Ptr())
	assert.True(t, *v.B.Ptr())
	assert.Nil(t, v.C.Ptr())
}

func TestStringList(t *testing.T) {
	cases := map[string][]string{
		`["a","b"]`:       {"a", "b"},
		`"a"`:             {"a"},
		`"[\"a\",\"b\"]"`: {"a", "b"},
		`["a","", " c "]`: {"a", "c"},
		`""`:              {},
	}
	for raw, want := range cases {
		var l StringList
		require.NoError(t, json.Unmarshal([]byte(raw), &l), raw)
		assert.Equal(t, want, []string(l), raw)
	}

	var l StringList
	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	assert.Nil(t, l)
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &l))
}
