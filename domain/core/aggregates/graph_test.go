package aggregates

import (
	"testing"
	"time"

	pkgerrors "multinet/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraphDefinition(t *testing.T) {
	tests := []struct {
		name       string
		workspace  string
		graph      string
		nodeTables []string
		edgeTable  string
		wantTables []string
		wantErr    bool
		errMsg     string
	}{
		{
			name:       "valid definition",
			workspace:  "ws",
			graph:      "social",
			nodeTables: []string{"people", "clubs"},
			edgeTable:  "membership",
			wantTables: []string{"people", "clubs"},
		},
		{
			name:       "duplicate node tables dropped",
			workspace:  "ws",
			graph:      "social",
			nodeTables: []string{"people", "clubs", "people"},
			edgeTable:  "membership",
			wantTables: []string{"people", "clubs"},
		},
		{
			name:       "no node tables",
			workspace:  "ws",
			graph:      "social",
			nodeTables: nil,
			edgeTable:  "membership",
			wantErr:    true,
			errMsg:     "at least one node table",
		},
		{
			name:       "missing edge table",
			workspace:  "ws",
			graph:      "social",
			nodeTables: []string{"people"},
			wantErr:    true,
			errMsg:     "edge table name is required",
		},
		{
			name:       "bad graph name",
			workspace:  "ws",
			graph:      "9lives",
			nodeTables: []string{"people"},
			edgeTable:  "membership",
			wantErr:    true,
		},
		{
			name:       "bad node table name",
			workspace:  "ws",
			graph:      "social",
			nodeTables: []string{"people/x"},
			edgeTable:  "membership",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := NewGraphDefinition(tt.workspace, tt.graph, tt.nodeTables, tt.edgeTable)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.Nil(t, def)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.workspace, def.Workspace())
			assert.Equal(t, tt.graph, def.Name())
			assert.Equal(t, tt.wantTables, def.NodeTables())
			assert.Equal(t, tt.edgeTable, def.EdgeTable())
			assert.False(t, def.CreatedAt().IsZero())
		})
	}
}

func TestGraphDefinition_NodeTablesIsCopy(t *testing.T) {
	def := RestoreGraphDefinition("ws", "g", []string{"a", "b"}, "e", time.Unix(0, 0))

	tables := def.NodeTables()
	tables[0] = "changed"

	assert.Equal(t, []string{"a", "b"}, def.NodeTables())
	assert.True(t, def.HasNodeTable("b"))
	assert.False(t, def.HasNodeTable("changed"))
}
