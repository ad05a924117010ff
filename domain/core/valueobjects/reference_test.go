package valueobjects

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReference(t *testing.T) {
	tests := []struct {
		input   string
		want    Reference
		wantErr bool
	}{
		{input: "people/alice", want: Reference{Table: "people", Key: "alice"}},
		{input: "people/a/b", want: Reference{Table: "people", Key: "a/b"}},
		{input: "people", wantErr: true},
		{input: "people/", wantErr: true},
		{input: "/alice", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseReference(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedReference))
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestKeySet(t *testing.T) {
	referenced := NewKeySet("c", "a", "b", "a")
	existing := NewKeySet("b")

	assert.Equal(t, 3, referenced.Len())
	assert.Equal(t, []string{"a", "c"}, referenced.Difference(existing).Sorted())
	assert.Equal(t, []string{"a", "b", "c"}, referenced.Difference(nil).Sorted())

	var empty KeySet
	assert.False(t, empty.Has("a"))
}

func TestValidateName(t *testing.T) {
	long := make([]byte, MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "people"},
		{name: "with digits and separators", input: "T_int-2"},
		{name: "max length", input: string(long[:MaxNameLength])},
		{name: "empty", input: "", wantErr: true},
		{name: "leading digit", input: "1abc", wantErr: true},
		{name: "slash", input: "a/b", wantErr: true},
		{name: "space", input: "a b", wantErr: true},
		{name: "too long", input: string(long), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("table", tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
