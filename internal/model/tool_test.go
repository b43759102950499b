package model_test

import (
	"log/slog"
	"testing"

	"github.com/CZERTAINLY/fleet/internal/model"
	"github.com/stretchr/testify/require"
)

func TestParseTool(t *testing.T) {
	var testCases = []struct {
		given string
		then  model.Tool
	}{
		{"docker", model.ToolDocker},
		{"compose", model.ToolCompose},
		{"docker-compose", model.ToolCompose},
		{" Machine ", model.ToolMachine},
		{"docker-machine", model.ToolMachine},
	}
	for _, tt := range testCases {
		t.Run(tt.given, func(t *testing.T) {
			tool, err := model.ParseTool(tt.given)
			require.NoError(t, err)
			require.Equal(t, tt.then, tool)
		})
	}

	_, err := model.ParseTool("kubectl")
	require.ErrorIs(t, err, model.ErrUnknownTool)
}

func TestToolSpec(t *testing.T) {
	for _, tool := range model.AllTools() {
		spec := tool.Spec()
		require.NotEmpty(t, spec.Binary, tool.String())
		require.NotEmpty(t, spec.VersionFlag, tool.String())
		require.NotEmpty(t, spec.HelpFlag, tool.String())
	}
	require.True(t, model.ToolMachine.Spec().Structured)
	require.False(t, model.ToolDocker.Spec().Structured)
	require.Equal(t, "unknown", model.ToolUnknown.String())
}

func TestSeverity(t *testing.T) {
	require.Equal(t, slog.LevelInfo, model.SeverityInfo.Level())
	require.Equal(t, "NOTICE", model.LevelName(model.SeverityNotice.Level()))
	require.Equal(t, "CRITICAL", model.LevelName(model.SeverityCritical.Level()))
	require.Equal(t, "FATAL", model.LevelName(model.SeverityFatal.Level()))
	require.Equal(t, "WARN", model.LevelName(model.SeverityWarn.Level()))
	require.Less(t, model.SeverityError.Level(), model.SeverityFatal.Level())
}

func TestParseCron(t *testing.T) {
	require.NoError(t, model.ParseCron("*/5 * * * *"))
	require.NoError(t, model.ParseCron("@hourly"))
	require.Error(t, model.ParseCron(""))
	require.Error(t, model.ParseCron("* * * * * *"))
}
