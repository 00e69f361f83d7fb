package projector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	projector "github.com/cloudxsgmbh/sparse-projector"
)

func TestLoadFile(t *testing.T) {
	reg, err := projector.LoadFile("testdata/quicksight.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"CreateDataSource", "DescribeDataSource"}, reg.Operations())

	s, err := reg.Operation("CreateDataSource")
	require.NoError(t, err)

	req, err := projector.Project(s, projector.Inputs{}.
		Set("AwsAccountId", "123456789012").
		Set("DataSourceId", "sales").
		Set("Name", "Sales").
		Set("Type", "POSTGRESQL").
		Set("PostgreSqlHost", "db.local").
		Set("PostgreSqlPort", 5432).
		Set("PostgreSqlDatabase", "sales").
		Set("Username", "alice").
		Set("DisableSsl", false))
	require.NoError(t, err)
	assert.Equal(t, Node{
		"AwsAccountId": "123456789012",
		"DataSourceId": "sales",
		"Name":         "Sales",
		"Type":         "POSTGRESQL",
		"DataSourceParameters": Node{
			"PostgreSqlParameters": Node{"Host": "db.local", "Port": 5432, "Database": "sales"},
		},
		"Credentials":   Node{"CredentialPair": Node{"Username": "alice"}},
		"SslProperties": Node{"DisableSsl": false},
	}, req)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := projector.LoadFile("testdata/does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read schema file")
}

func TestRegistry_Register(t *testing.T) {
	reg, err := projector.NewRegistry()
	require.NoError(t, err)

	_, err = reg.Operation("Ping")
	assert.ErrorIs(t, err, projector.ErrArgument)

	def := &projector.SchemaDef{
		Version: "1",
		Operations: []*projector.OperationDef{
			{Name: "Ping", Request: []*projector.FieldDef{{Name: "Id", Type: projector.LeafString}}},
		},
	}
	require.NoError(t, reg.Register(def))
	assert.Equal(t, []string{"Ping"}, reg.Operations())

	err = reg.Register(def)
	assert.ErrorIs(t, err, projector.ErrSchemaViolation)
	assert.Contains(t, err.Error(), `operation "Ping" is already registered`)

	s, err := reg.Operation("Ping")
	require.NoError(t, err)
	assert.ErrorIs(t, reg.RegisterSchema(s), projector.ErrSchemaViolation)
}

func TestRegistry_Versions(t *testing.T) {
	_, err := projector.NewRegistry(&projector.SchemaDef{})
	assert.ErrorContains(t, err, "schema is missing a version")

	_, err = projector.NewRegistry(&projector.SchemaDef{Version: "2"})
	assert.ErrorContains(t, err, `unsupported schema version "2"`)
}

func TestRegistry_FailedRegisterAddsNothing(t *testing.T) {
	reg, err := projector.NewRegistry()
	require.NoError(t, err)

	err = reg.Register(&projector.SchemaDef{
		Version: "1",
		Operations: []*projector.OperationDef{
			{Name: "Good", Request: []*projector.FieldDef{{Name: "Id", Type: projector.LeafString}}},
			{Name: "Bad", Request: []*projector.FieldDef{{Name: "Id", Type: "bogus"}}},
		},
	})
	require.ErrorIs(t, err, projector.ErrSchemaViolation)
	assert.Empty(t, reg.Operations())
}

func TestParseSchema_JSON(t *testing.T) {
	def, err := projector.ParseSchema([]byte(`{
  "version": "1",
  "operations": [
    {"name": "Ping", "request": [{"name": "Id", "type": "string", "required": true}]}
  ]
}`))
	require.NoError(t, err)
	reg, err := projector.NewRegistry(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ping"}, reg.Operations())
}

func TestParseSchema_Invalid(t *testing.T) {
	_, err := projector.ParseSchema([]byte("version: [unterminated"))
	assert.ErrorIs(t, err, projector.ErrSchemaViolation)
}

func TestParseSchema_UnknownKey(t *testing.T) {
	_, err := projector.ParseSchema([]byte(`
version: "1"
operations:
  - name: Create
    request:
      - {name: Id, type: string, requried: true}
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, projector.ErrSchemaViolation)
	assert.Contains(t, err.Error(), "requried")

	_, err = projector.LoadFile("testdata/misspelt.yaml")
	assert.ErrorIs(t, err, projector.ErrSchemaViolation)
}

func TestParseSchema_Empty(t *testing.T) {
	def, err := projector.ParseSchema(nil)
	require.NoError(t, err)
	_, err = projector.NewRegistry(def)
	assert.ErrorContains(t, err, "schema is missing a version")
}
