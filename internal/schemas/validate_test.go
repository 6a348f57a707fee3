package schemas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"name": {"type": "string"},
		"count": {"type": "integer", "minimum": 0}
	},
	"required": ["name"]
}`

func TestValidateJSONString_Valid(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"name": "x", "count": 3}`)
	assert.NoError(t, err)
}

func TestValidateJSONString_MissingRequired(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"count": 3}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.NotEmpty(t, validationErr.Errors)
	assert.Contains(t, err.Error(), "name")
}

func TestValidateJSONString_WrongType(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"name": "x", "count": "three"}`)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "count", validationErr.Errors[0].Field)
}

func TestValidateJSONString_UnknownField(t *testing.T) {
	err := ValidateJSONString(testSchema, `{"name": "x", "extra": true}`)
	assert.Error(t, err)
}

func TestValidateJSONString_MalformedDocument(t *testing.T) {
	err := ValidateJSONString(testSchema, `{ not json `)
	require.Error(t, err)

	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok)
}

func TestResolveSchemaPath_Found(t *testing.T) {
	dir := t.TempDir()
	schemaFile := filepath.Join(dir, "test.schema.json")
	require.NoError(t, os.WriteFile(schemaFile, []byte(testSchema), 0644))

	resolved := ResolveSchemaPath(schemaFile)
	assert.Equal(t, schemaFile, resolved)
}

func TestResolveSchemaPath_NotFound(t *testing.T) {
	resolved := ResolveSchemaPath("no/such/schema.json")
	assert.Empty(t, resolved)
}

func TestResolveSchemaPath_ConfigSchemaFromPackageDir(t *testing.T) {
	// The shipped config schema resolves two levels up from this package.
	resolved := ResolveSchemaPath("schemas/config.schema.json")
	assert.NotEmpty(t, resolved)
}
