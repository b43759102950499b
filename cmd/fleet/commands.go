package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"text/tabwriter"

	"github.com/CZERTAINLY/fleet/internal/inventory"
	"github.com/CZERTAINLY/fleet/internal/job"
	"github.com/CZERTAINLY/fleet/internal/log"
	"github.com/CZERTAINLY/fleet/internal/model"
	"github.com/CZERTAINLY/fleet/internal/service"
	"github.com/CZERTAINLY/fleet/internal/tool"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/spf13/cobra"
)

var (
	flagBOM       bool
	flagCapture   bool
	flagStderr    bool
	flagKeepBlank bool
	flagRaw       bool
	flagOnce      bool
)

func init() {
	toolsCmd.Flags().BoolVar(&flagBOM, "bom", false, "print the tool chain as CycloneDX BOM")

	execCmd.Flags().BoolVar(&flagCapture, "capture", false, "print captured stdout lines instead of logging them")
	execCmd.Flags().BoolVar(&flagStderr, "stderr", false, "with --capture, capture stderr lines too")
	execCmd.Flags().BoolVar(&flagKeepBlank, "keep-blank", false, "keep blank lines")
	execCmd.Flags().BoolVar(&flagRaw, "raw", false, "relay output as is instead of logging it")
	// flags after the tool name belong to the tool
	execCmd.Flags().SetInterspersed(false)
	sshCmd.Flags().SetInterspersed(false)

	watchCmd.Flags().BoolVar(&flagOnce, "once", false, "run the configured invocations once and exit")
}

// app wires the shared components of all commands.
type app struct {
	resolver   *tool.Resolver
	controller *job.Controller
	registry   *tool.Registry
}

func newApp() app {
	resolver := tool.NewResolver(config.ToolPaths())
	controller := job.New()
	return app{
		resolver:   resolver,
		controller: controller,
		registry:   tool.NewRegistry(controller, resolver),
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provide version of a fleet",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("fleet: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config: %s\n", configPath)
		}
		fmt.Printf("fleet:  %s\n", info.Main.Version)
		fmt.Printf("go:     %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit: %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:   %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:  %s\n", s.Value)
			}
		}
		fmt.Println()
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "discover versions and commands of docker, docker-compose and docker-machine",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := log.ContextAttrs(cmd.Context(), slog.String("cmd", "tools"))
		a := newApp()
		entries := inventory.Collect(ctx, a.registry, a.resolver)

		if flagBOM {
			return inventory.NewBuilder().
				AppendEntries(entries...).
				AppendProperties(cdx.Property{Name: "fleet:config", Value: configPath}).
				AsJSON(cmd.OutOrStdout())
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOOL\tVERSION\tPATH\tCOMMANDS")
		for _, e := range entries {
			path := e.Path
			if !e.Available() {
				path = "not found"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", e.Tool.Spec().Binary, e.Version, path, len(e.Commands))
		}
		return w.Flush()
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <tool> [flags] [--] [args...]",
	Short: "run a tool and log or capture its output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := model.ParseTool(args[0])
		if err != nil {
			return err
		}
		ctx := log.ContextAttrs(cmd.Context(), slog.String("cmd", "exec"))
		a := newApp()
		path, err := a.resolver.Path(t)
		if err != nil {
			return err
		}

		toolArgs := args[1:]
		if len(toolArgs) > 0 && toolArgs[0] == "--" {
			toolArgs = toolArgs[1:]
		}
		argv := append([]string{path}, toolArgs...)

		opts := job.Options{
			KeepBlankLines: flagKeepBlank,
			RawRelay:       flagRaw,
			Tool:           t,
		}
		if flagCapture {
			opts.Mode = job.ModeReturn
			opts.IncludeStderr = flagStderr
		}
		res, err := a.controller.Execute(ctx, argv, opts)
		if err != nil {
			return err
		}
		for _, line := range res.Lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		if res.ExitCode != 0 {
			return exitCodeError(res.ExitCode)
		}
		return nil
	},
}

var sshCmd = &cobra.Command{
	Use:   "ssh <machine> [command...]",
	Short: "open an interactive shell on a machine",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := log.ContextAttrs(cmd.Context(), slog.String("cmd", "ssh"), slog.String("machine", args[0]))
		a := newApp()
		path, ok := a.resolver.Require(ctx, model.ToolMachine, func() {
			fmt.Fprintf(cmd.ErrOrStderr(), "fleet: docker-machine is required, install it or set tools.machine in %s\n", configPath)
		})
		if !ok {
			return exitCodeError(127)
		}
		// an empty list means the help text could not be parsed
		if cmds := a.registry.Commands(ctx, model.ToolMachine); len(cmds) > 0 && !a.registry.HasCommand(ctx, model.ToolMachine, "ssh") {
			return errors.New("docker-machine does not provide the ssh command")
		}

		argv := append([]string{path, "ssh"}, args...)
		code := a.controller.ExecuteInteractive(ctx, argv)
		if code != 0 {
			return exitCodeError(code)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "run the invocations configured in watch section on a schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := log.ContextAttrs(cmd.Context(),
			slog.Group("fleet",
				slog.String("cmd", "watch"),
				slog.Int("pid", os.Getpid()),
			),
		)
		a := newApp()
		supervisor, err := service.NewSupervisor(config, a.controller, a.resolver)
		if err != nil {
			return err
		}
		if flagOnce {
			return supervisor.Tick(ctx)
		}
		return supervisor.Do(ctx)
	},
}
