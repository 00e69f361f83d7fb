package projector_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	projector "github.com/cloudxsgmbh/sparse-projector"
)

var describeResponse = map[string]any{
	"Status": float64(200),
	"DataSource": map[string]any{
		"Arn":  "arn:aws:quicksight:eu-west-1:123:datasource/sales",
		"Name": "Sales",
		"Errors": []any{
			map[string]any{"Type": "TIMEOUT"},
			map[string]any{"Type": "ACCESS_DENIED"},
		},
		"SslProperties": map[string]any{"DisableSsl": false},
	},
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		expr string
		kind projector.SelectKind
		str  string
	}{
		{"", projector.SelectWhole, "*"},
		{"*", projector.SelectWhole, "*"},
		{"^DataSourceId", projector.SelectInput, "^DataSourceId"},
		{"DataSource.Arn", projector.SelectPath, "DataSource.Arn"},
		{"DataSource.Errors[1].Type", projector.SelectPath, "DataSource.Errors[1].Type"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			sel, err := projector.ParseSelection(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, sel.Kind)
			assert.Equal(t, tt.str, sel.String())
		})
	}

	_, err := projector.ParseSelection("^")
	assert.ErrorIs(t, err, projector.ErrArgument)
}

func TestSelect_Whole(t *testing.T) {
	out, err := projector.Select(projector.Selection{}, describeResponse, nil)
	require.NoError(t, err)
	assert.Equal(t, describeResponse, out)
}

func TestSelect_Path(t *testing.T) {
	tests := []struct {
		path string
		want any
	}{
		{"DataSource.Arn", "arn:aws:quicksight:eu-west-1:123:datasource/sales"},
		{"Status", float64(200)},
		{"DataSource.Errors[1].Type", "ACCESS_DENIED"},
		{"DataSource.SslProperties.DisableSsl", false},
		{"DataSource.SslProperties", map[string]any{"DisableSsl": false}},
		{"DataSource.Errors[*].Type", []any{"TIMEOUT", "ACCESS_DENIED"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			sel, err := projector.ParseSelection(tt.path)
			require.NoError(t, err)
			out, err := projector.Select(sel, describeResponse, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSelect_PathNotFound(t *testing.T) {
	sel, err := projector.ParseSelection("DataSource.VpcConnectionProperties.VpcConnectionArn")
	require.NoError(t, err)

	_, err = projector.Select(sel, describeResponse, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, projector.ErrFieldNotFound)

	var perr *projector.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "DataSource.VpcConnectionProperties", perr.Context["missing"])
}

func TestSelect_PathOnAssembledRequest(t *testing.T) {
	req := projector.Node{"Credentials": projector.Node{"Username": "alice"}}
	sel, err := projector.ParseSelection("Credentials.Username")
	require.NoError(t, err)
	out, err := projector.Select(sel, req, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", out)
}

type describeOutput struct {
	DataSource *dataSource
	RequestId  *string
}

type dataSource struct {
	Arn  *string
	Name *string
}

func TestSelect_PathOnTypedResponse(t *testing.T) {
	arn := "arn:x"
	resp := &describeOutput{DataSource: &dataSource{Arn: &arn}}

	sel, err := projector.ParseSelection("DataSource.Arn")
	require.NoError(t, err)
	out, err := projector.Select(sel, resp, nil)
	require.NoError(t, err)
	assert.Equal(t, "arn:x", out)
}

func TestSelect_EchoInput(t *testing.T) {
	in := projector.Inputs{}.Set("DataSourceId", "sales").Set("DisableSsl", false)

	out, err := projector.Select(projector.EchoInput("DataSourceId"), nil, in)
	require.NoError(t, err)
	assert.Equal(t, "sales", out)

	out, err = projector.Select(projector.EchoInput("DisableSsl"), describeResponse, in)
	require.NoError(t, err)
	assert.Equal(t, false, out, "echo ignores the response")

	_, err = projector.Select(projector.EchoInput("Name"), describeResponse, in)
	assert.ErrorIs(t, err, projector.ErrFieldNotFound)
}

func TestSelect_UnparsedPath(t *testing.T) {
	out, err := projector.Select(projector.Selection{Kind: projector.SelectPath, Path: "Status"}, describeResponse, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(200), out)
}

func TestSelect_WildcardAlwaysList(t *testing.T) {
	resp := map[string]any{
		"One":   []any{map[string]any{"Id": "a"}},
		"Two":   []any{map[string]any{"Id": "a"}, map[string]any{"Id": "b"}},
		"Empty": []any{},
	}
	tests := []struct {
		path string
		want any
	}{
		{"One[*].Id", []any{"a"}},
		{"Two[*].Id", []any{"a", "b"}},
		{"Empty[*].Id", []any{}},
		{"Empty[*]", []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			sel, err := projector.ParseSelection(tt.path)
			require.NoError(t, err)
			out, err := projector.Select(sel, resp, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}

	sel, err := projector.ParseSelection("Missing[*].Id")
	require.NoError(t, err)
	_, err = projector.Select(sel, resp, nil)
	assert.ErrorIs(t, err, projector.ErrFieldNotFound, "a wildcard over a missing member is still not found")
}
