package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_JSONKeepsFieldOrder(t *testing.T) {
	input := `{"zeta":1,"alpha":"a","_key":"k1","nested":{"b":2,"a":1},"list":[1,"x",null],"flag":true,"none":null}`

	rec, err := ParseRecord([]byte(input))
	require.NoError(t, err)

	names := make([]string, 0, rec.Len())
	for _, f := range rec.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "_key", "nested", "list", "flag", "none"}, names)

	zeta, _ := rec.Get("zeta")
	assert.Equal(t, json.Number("1"), zeta)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"a","_key":"k1","nested":{"a":1,"b":2},"list":[1,"x",null],"flag":true,"none":null}`, string(out))
}

func TestRecord_UnmarshalRejectsNonObjects(t *testing.T) {
	for _, input := range []string{`[1,2]`, `"text"`, `12`, `{"a":`} {
		_, err := ParseRecord([]byte(input))
		assert.Error(t, err, input)
	}

	rec, err := ParseRecord([]byte(`null`))
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())
}

func TestRecord_Key(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   string
		wantOK bool
	}{
		{name: "string", value: "abc", want: "abc", wantOK: true},
		{name: "json number", value: json.Number("12"), want: "12", wantOK: true},
		{name: "int", value: 7, want: "7", wantOK: true},
		{name: "int64", value: int64(9), want: "9", wantOK: true},
		{name: "float", value: float64(3), want: "3", wantOK: true},
		{name: "empty string", value: "", wantOK: false},
		{name: "bool", value: true, wantOK: false},
		{name: "nil", value: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewRecord(Field{Name: FieldKey, Value: tt.value})
			got, ok := rec.Key()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := Record{}.Key()
	assert.False(t, ok)
}

func TestRecord_SetDeleteClone(t *testing.T) {
	rec := NewRecord(Field{Name: "a", Value: 1}, Field{Name: "b", Value: 2}, Field{Name: "a", Value: 3})
	require.Equal(t, 2, rec.Len())
	a, _ := rec.Get("a")
	assert.Equal(t, 3, a)

	clone := rec.Clone()
	clone.Set("c", 4)
	clone.Set("a", 5)
	clone.Delete("b")

	assert.Equal(t, map[string]any{"a": 3, "b": 2}, rec.ToMap())
	assert.Equal(t, map[string]any{"a": 5, "c": 4}, clone.ToMap())
	assert.Equal(t, "a", clone.Fields()[0].Name)

	var zero Record
	zero.Set("x", "y")
	s, ok := zero.GetString("x")
	assert.True(t, ok)
	assert.Equal(t, "y", s)
	_, ok = zero.GetString("missing")
	assert.False(t, ok)
}

func TestRecordFromMap_SortsFields(t *testing.T) {
	rec := RecordFromMap(map[string]any{"b": 1, "a": 2, "c": 3})

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":3}`, string(out))
}
