package condition

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aevon-lab/raster/internal/core/model"
)

func TestExpression_Check(t *testing.T) {
	tests := []struct {
		name   string
		source string
		row    model.ModelData
		want   bool
	}{
		{name: "field equality", source: `status == "Planned"`, row: model.Row{"status": "Planned"}, want: true},
		{name: "field inequality", source: `status == "Planned"`, row: model.Row{"status": "Done"}},
		{name: "has present", source: `has("cleaner id")`, row: model.Row{"cleaner id": 7}, want: true},
		{name: "has nil value", source: `has("cleaner id")`, row: model.Row{"cleaner id": nil}},
		{name: "get", source: `get("cleaner id") == 7`, row: model.Row{"cleaner id": 7}, want: true},
		{name: "sprig function", source: `sprig.upper(role) == "CLEANER"`, row: model.Row{"role": "cleaner"}, want: true},
		{name: "membership", source: `role in ["cleaner", "porter"]`, row: model.Row{"role": "porter"}, want: true},
		{name: "numeric comparison", source: `hours > 4`, row: model.Row{"hours": 6}, want: true},
		{name: "non-bool result rejects", source: `status`, row: model.Row{"status": "Planned"}},
		{name: "absent row", source: `has("status")`, row: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, err := Compile(tc.source)
			require.NoError(t, err)
			require.Equal(t, tc.want, e.Check(tc.row))
		})
	}
}

func TestExpression_EvalErrors(t *testing.T) {
	e, err := Compile(`status`)
	require.NoError(t, err)
	_, err = e.Eval(model.Row{"status": "Planned"})
	require.Error(t, err)
	require.Equal(t, "status", e.String())
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`status ==`)
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	c, err := Parse("  ")
	require.NoError(t, err)
	require.True(t, c.Check(nil))

	c, err = Parse(`status != "Cancelled"`)
	require.NoError(t, err)
	require.True(t, c.Check(model.Row{"status": "Planned"}))
	require.False(t, c.Check(model.Row{"status": "Cancelled"}))
}
