package flagbind

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	projector "github.com/cloudxsgmbh/sparse-projector"
)

func testSchema(t *testing.T) *projector.Schema {
	t.Helper()
	s, err := projector.CompileOperation(&projector.OperationDef{
		Name: "Create",
		Request: []*projector.FieldDef{
			{Name: "Name", Type: projector.LeafString, Required: true, Help: "Display name."},
			{Name: "Ssl", Fields: []*projector.FieldDef{
				{Name: "DisableSsl", Type: projector.LeafBoolean, Input: "DisableSsl"},
			}},
			{Name: "Port", Type: projector.LeafInteger},
			{Name: "Ratio", Type: projector.LeafNumber},
			{Name: "Ports", Type: projector.LeafList, Items: projector.LeafInteger, Input: "Port-List"},
			{Name: "Labels", Type: projector.LeafMap},
			{Name: "Extra", Type: projector.LeafAny},
			{Name: "Mode", Type: projector.LeafString, Enum: []string{"FAST", "SAFE"}},
		},
	})
	require.NoError(t, err)
	return s
}

func parse(t *testing.T, args ...string) projector.Inputs {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	b, err := Bind(fs, testSchema(t))
	require.NoError(t, err)
	require.NoError(t, fs.Parse(args))
	in, err := b.Inputs(fs)
	require.NoError(t, err)
	return in
}

func TestInputs_OnlyChangedFlags(t *testing.T) {
	in := parse(t, "--Name", "sales")
	assert.Equal(t, projector.Inputs{"Name": {Value: "sales", Set: true}}, in)
}

func TestInputs_FalseIsPresent(t *testing.T) {
	in := parse(t, "--DisableSsl=false", "--Port", "0", "--Name", "")
	assert.Equal(t, projector.Inputs{
		"DisableSsl": {Value: false, Set: true},
		"Port":       {Value: int64(0), Set: true},
		"Name":       {Value: "", Set: true},
	}, in)
}

func TestInputs_Types(t *testing.T) {
	in := parse(t,
		"--Ratio", "0.5",
		"--Port-List", "80,443",
		"--Labels", "team=data,env=prod",
		"--Extra", `{"a":[1,2]}`,
		"--Mode", "FAST",
	)
	assert.Equal(t, projector.Inputs{
		"Ratio":     {Value: 0.5, Set: true},
		"Port-List": {Value: []any{int64(80), int64(443)}, Set: true},
		"Labels":    {Value: map[string]string{"team": "data", "env": "prod"}, Set: true},
		"Extra":     {Value: map[string]any{"a": []any{float64(1), float64(2)}}, Set: true},
		"Mode":      {Value: "FAST", Set: true},
	}, in)

	in = parse(t, "--Extra", "plain text")
	assert.Equal(t, "plain text", in["Extra"].Value)
}

func TestInputs_BadListElement(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	b, err := Bind(fs, testSchema(t))
	require.NoError(t, err)
	require.NoError(t, fs.Parse([]string{"--Port-List", "80,http"}))
	_, err = b.Inputs(fs)
	assert.ErrorContains(t, err, `--Port-List: element "http"`)
}

func TestBind_Collision(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("Name", "", "taken")
	_, err := Bind(fs, testSchema(t))
	assert.ErrorContains(t, err, "flag --Name")
}

func TestUsage(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, err := Bind(fs, testSchema(t))
	require.NoError(t, err)

	assert.Equal(t, "Display name. (string) [required]", fs.Lookup("Name").Usage)
	assert.Equal(t, "sets Ssl.DisableSsl (boolean)", fs.Lookup("DisableSsl").Usage)
	assert.Equal(t, "sets Ports (list of integer)", fs.Lookup("Port-List").Usage)
	assert.Equal(t, "(string) one of: FAST, SAFE", fs.Lookup("Mode").Usage)
}

func TestInputs_ProjectEndToEnd(t *testing.T) {
	s := testSchema(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	b, err := Bind(fs, s)
	require.NoError(t, err)
	require.NoError(t, fs.Parse([]string{"--Name", "n", "--DisableSsl=false"}))
	in, err := b.Inputs(fs)
	require.NoError(t, err)

	req, err := projector.Project(s, in)
	require.NoError(t, err)
	assert.Equal(t, projector.Node{"Name": "n", "Ssl": projector.Node{"DisableSsl": false}}, req)
}
