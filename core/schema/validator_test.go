package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *SchemaDefinition {
	return &SchemaDefinition{
		Name: "people",
		Columns: []ColumnDefinition{
			{Name: "name", Type: TypeString},
			{Name: "age", Type: TypeNumber},
			{Name: "active", Type: TypeBoolean},
		},
	}
}

func TestValidator_Coerce(t *testing.T) {
	v := NewValidator(testSchema())

	t.Run("valid document with coercion", func(t *testing.T) {
		out, issues := v.Coerce(map[string]any{"name": "ada", "age": 36, "active": "true"}, false)
		assert.Empty(t, issues)
		assert.Equal(t, map[string]any{"name": "ada", "age": 36.0, "active": true}, out)
	})

	t.Run("null markers", func(t *testing.T) {
		out, issues := v.Coerce(map[string]any{"name": "NULL", "age": nil, "active": false}, false)
		assert.Empty(t, issues)
		assert.Nil(t, out["name"])
		assert.Nil(t, out["age"])
	})

	t.Run("numeric strings become numbers", func(t *testing.T) {
		out, issues := v.Coerce(map[string]any{"name": "x", "age": " 4.5 ", "active": true}, false)
		assert.Empty(t, issues)
		assert.Equal(t, 4.5, out["age"])
	})

	t.Run("type mismatch", func(t *testing.T) {
		_, issues := v.Coerce(map[string]any{"name": 3, "age": "old", "active": true}, false)
		require.Len(t, issues, 2)
		assert.Equal(t, "TYPE_MISMATCH", issues[0].Code)
		assert.Equal(t, "name", issues[0].Path)
		assert.Equal(t, "age", issues[1].Path)
	})

	t.Run("missing and unknown columns", func(t *testing.T) {
		_, issues := v.Coerce(map[string]any{"name": "x", "age": 1, "extra": 1}, false)
		codes := []string{}
		for _, i := range issues {
			codes = append(codes, i.Code)
		}
		assert.ElementsMatch(t, []string{"MISSING_COLUMN", "UNKNOWN_COLUMN"}, codes)
	})

	t.Run("loose ignores missing columns", func(t *testing.T) {
		out, issues := v.Coerce(map[string]any{"name": "x"}, true)
		assert.Empty(t, issues)
		assert.Equal(t, map[string]any{"name": "x", "age": nil, "active": nil}, out)
	})
}

func TestDataType(t *testing.T) {
	assert.True(t, TypeNumber.IsValid())
	assert.False(t, DataType("date").IsValid())
	assert.True(t, TypeNumber.Accepts(1.5))
	assert.False(t, TypeNumber.Accepts(1))
	assert.True(t, TypeString.Accepts("a"))
	assert.True(t, TypeBoolean.Accepts(false))

	var dt DataType
	require.NoError(t, json.Unmarshal([]byte(`"boolean"`), &dt))
	assert.Equal(t, TypeBoolean, dt)
	assert.Error(t, json.Unmarshal([]byte(`"date"`), &dt))
}

func TestSchemaDefinition(t *testing.T) {
	s := testSchema()
	assert.Equal(t, []string{"name", "age", "active"}, s.Names())
	c, ok := s.Column("age")
	assert.True(t, ok)
	assert.Equal(t, TypeNumber, c.Type)
	_, ok = s.Column("nope")
	assert.False(t, ok)
	assert.Equal(t, "number", s.Types()["age"])
}
