package job_test

import (
	"bytes"
	"testing"

	"github.com/CZERTAINLY/fleet/internal/job"
	"github.com/CZERTAINLY/fleet/internal/log"
	"github.com/CZERTAINLY/fleet/internal/model"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	type given struct {
		line   string
		stream model.Stream
		tool   model.Tool
	}
	type then struct {
		sev  model.Severity
		text string
	}

	var testCases = []struct {
		scenario string
		given    given
		then     then
	}{
		{
			"stdout default",
			given{"hello", model.Stdout, model.ToolDocker},
			then{model.SeverityInfo, "hello"},
		},
		{
			"stderr default",
			given{"oops", model.Stderr, model.ToolDocker},
			then{model.SeverityNotice, "oops"},
		},
		{
			"structured line of a plain tool",
			given{`level=error msg="disk full"`, model.Stderr, model.ToolCompose},
			then{model.SeverityNotice, `level=error msg="disk full"`},
		},
		{
			"error",
			given{`level=error msg="disk full"`, model.Stderr, model.ToolMachine},
			then{model.SeverityWarn, "disk full"},
		},
		{
			"info with time",
			given{`time="2024-01-02T03:04:05Z" level=info msg="Creating machine..."`, model.Stdout, model.ToolMachine},
			then{model.SeverityInfo, "Creating machine..."},
		},
		{
			"warn",
			given{"level=warn msg=slow", model.Stdout, model.ToolMachine},
			then{model.SeverityNotice, "slow"},
		},
		{
			"warning alias",
			given{`level=warning msg="slow disk"`, model.Stderr, model.ToolMachine},
			then{model.SeverityNotice, "slow disk"},
		},
		{
			"debug",
			given{`level=debug msg="x"`, model.Stderr, model.ToolMachine},
			then{model.SeverityDebug, "x"},
		},
		{
			"fatal",
			given{`level=fatal msg="no host"`, model.Stderr, model.ToolMachine},
			then{model.SeverityError, "no host"},
		},
		{
			"panic",
			given{`level=panic msg="nil map"`, model.Stderr, model.ToolMachine},
			then{model.SeverityFatal, "nil map"},
		},
		{
			"escaped quotes",
			given{`level=error msg="can't read \"config.json\""`, model.Stderr, model.ToolMachine},
			then{model.SeverityWarn, `can't read "config.json"`},
		},
		{
			"no msg keeps line",
			given{"level=info host=dev", model.Stdout, model.ToolMachine},
			then{model.SeverityInfo, "level=info host=dev"},
		},
		{
			"unknown level",
			given{"level=trace msg=x", model.Stderr, model.ToolMachine},
			then{model.SeverityNotice, "level=trace msg=x"},
		},
		{
			"plain text from structured tool",
			given{"Running pre-create checks...", model.Stdout, model.ToolMachine},
			then{model.SeverityInfo, "Running pre-create checks..."},
		},
		{
			"no level",
			given{"host=dev msg=up", model.Stderr, model.ToolMachine},
			then{model.SeverityNotice, "host=dev msg=up"},
		},
		{
			"unterminated quote",
			given{`level=error msg="disk`, model.Stderr, model.ToolMachine},
			then{model.SeverityNotice, `level=error msg="disk`},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.scenario, func(t *testing.T) {
			sev, text := job.Classify(tt.given.line, tt.given.stream, tt.given.tool)
			require.Equal(t, tt.then.sev, sev)
			require.Equal(t, tt.then.text, text)
		})
	}
}

// debug lines of structured tools are only visible in verbose mode
func TestClassifyDebugVisibility(t *testing.T) {
	t.Parallel()
	line := `time="2024" level=debug msg="probing driver"`

	for _, verbose := range []bool{false, true} {
		var buf bytes.Buffer
		logger := log.New(&buf, verbose)
		sev, text := job.Classify(line, model.Stderr, model.ToolMachine)
		require.Equal(t, model.SeverityDebug, sev)
		logger.Log(t.Context(), sev.Level(), text)

		if verbose {
			require.Contains(t, buf.String(), `"level":"DEBUG","msg":"probing driver"`)
		} else {
			require.Empty(t, buf.String())
		}
	}
}
