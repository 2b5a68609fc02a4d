package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/trainprogram/game/config"
	"github.com/wricardo/mcp-training/trainprogram/game/engine"
	"github.com/wricardo/mcp-training/trainprogram/game/stepper"
	"golang.org/x/term"
)

var errNoCommands = errors.New("no commands given")

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     "Play one level in the terminal",
		ArgsUsage: "COMMAND...",
		Description: `Programs a level with the given commands, runs it and prints every step.
Commands: advance, turn_left, turn_right, signal, toggle_light
(aliases: forward, left, right, horn, light).

Example: trainprogram play --level 2 advance turn_right advance advance`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Catalog file, or a directory whose default catalog is used (built-in levels when empty)",
			},
			&cli.IntFlag{
				Name:  "level",
				Value: 1,
				Usage: "Level number, starting at 1",
			},
			&cli.BoolFlag{
				Name:  "animate",
				Usage: "Print each step as it is revealed, with the playback pacing",
			},
		},
		Action: playAction,
	}
}

func playAction(ctx context.Context, cmd *cli.Command) error {
	catalog, err := loadPlayCatalog(cmd.String("catalog"))
	if err != nil {
		return err
	}

	commands, err := parseCommands(cmd.Args().Slice())
	if err != nil {
		return err
	}

	var pacing *stepper.Pacing
	if cmd.Bool("animate") {
		p := stepper.DefaultPacing()
		if interval := cmd.Duration("step-interval"); interval > 0 {
			p.Step = interval
		}
		pacing = &p
	}

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	level, state, err := playLevel(ctx, catalog, int(cmd.Int("level"))-1, commands, pacing, out)
	if err != nil {
		return err
	}

	return printRun(out, level, state, isTerminal(out))
}

// loadPlayCatalog resolves the --catalog flag
func loadPlayCatalog(path string) (*engine.Catalog, error) {
	if path == "" {
		return engine.DefaultCatalog(), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	if info.IsDir() {
		manager, err := config.NewManager(path)
		if err != nil {
			return nil, err
		}
		return manager.GetDefault(), nil
	}
	return config.LoadCatalogFile(path)
}

func parseCommands(args []string) ([]engine.Command, error) {
	if len(args) == 0 {
		return nil, errNoCommands
	}
	if len(args) > engine.MaxQueueLength {
		return nil, fmt.Errorf("%d commands given, the queue holds at most %d", len(args), engine.MaxQueueLength)
	}

	commands := make([]engine.Command, 0, len(args))
	for _, arg := range args {
		c, err := engine.ParseCommand(arg)
		if err != nil {
			return nil, err
		}
		commands = append(commands, c)
	}
	return commands, nil
}

// playLevel programs and runs the level at index and returns the level with
// the final state. With pacing set, the run is played back by a Stepper and
// each revealed step is written to out; otherwise it is played through at once.
func playLevel(ctx context.Context, catalog *engine.Catalog, index int, commands []engine.Command, pacing *stepper.Pacing, out io.Writer) (engine.Level, engine.SessionState, error) {
	if index < 0 || index >= catalog.Len() {
		return engine.Level{}, engine.SessionState{}, fmt.Errorf("level %d does not exist, the catalog has %d levels", index+1, catalog.Len())
	}

	eng, err := engine.NewEngine(catalog)
	if err != nil {
		return engine.Level{}, engine.SessionState{}, err
	}

	eng.GoToLevelSelect()
	eng.StartLevel(index)
	for _, c := range commands {
		eng.AddCommand(c)
	}
	state := eng.Run()
	level, _ := eng.CurrentLevel()

	if pacing == nil {
		return level, eng.PlayThrough(), nil
	}

	st := stepper.New(*pacing, stepper.WithOnStep(func(s engine.SessionState) {
		if step := s.CurrentStep(); step != nil && s.PlaySubPhase == engine.SubPhaseExecuting {
			fmt.Fprintf(out, "%2d. %-12s %s -> %s\n", s.Cursor+1, step.Command, step.PoseBefore.Position, step.PoseAfter.Position)
		}
	}))
	state, err = st.Play(ctx, stepper.EngineDispatcher{Engine: eng}, state)
	return level, state, err
}

// runMarkdown renders the run of level as a markdown document
func runMarkdown(level engine.Level, state engine.SessionState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Level %d: %s\n\n", level.ID, level.Name)
	fmt.Fprintf(&b, "Start %s facing %s, goal %s.\n\n", level.Start, level.StartDirection, level.Goal)

	b.WriteString("| # | Command | From | To | Facing | Light | Note |\n")
	b.WriteString("|---|---------|------|----|--------|-------|------|\n")
	for i, step := range state.Trace {
		light := "off"
		if step.PoseAfter.LightOn {
			light = "on"
		}
		note := ""
		switch {
		case step.RejectedOutOfBounds:
			note = "blocked by edge"
		case step.Command == engine.CmdSignal:
			note = "toot!"
		case step.PoseAfter.Position == level.Goal:
			note = "on goal"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			i+1, step.Command, step.PoseBefore.Position, step.PoseAfter.Position,
			step.PoseAfter.Direction, light, note)
	}

	final := engine.FinalPose(state.Trace, level)
	fmt.Fprintf(&b, "\nFinal position %s facing %s.\n", final.Position, final.Direction)
	if rejected := engine.CountRejected(state.Trace); rejected > 0 {
		fmt.Fprintf(&b, "\n%d step(s) were blocked by the edge of the grid.\n", rejected)
	}
	if state.ScreenPhase == engine.PhaseFailure && level.Hint != "" {
		fmt.Fprintf(&b, "\n> Hint: %s\n", level.Hint)
	}
	return b.String()
}

// printRun writes the trace table and a coloured outcome line. Markdown is
// rendered with glamour on a terminal and written as is otherwise.
func printRun(out io.Writer, level engine.Level, state engine.SessionState, tty bool) error {
	doc := runMarkdown(level, state)
	if tty {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(terminalWidth(out)),
		)
		if err != nil {
			return err
		}
		if doc, err = renderer.Render(doc); err != nil {
			return err
		}
	}
	fmt.Fprint(out, doc)

	output := termenv.NewOutput(out)
	var banner termenv.Style
	switch state.ScreenPhase {
	case engine.PhaseSuccess:
		banner = output.String("LEVEL CLEARED").Foreground(termenv.ANSIGreen).Bold()
	case engine.PhaseFailure:
		banner = output.String("MISSED THE GOAL").Foreground(termenv.ANSIRed).Bold()
	default:
		banner = output.String("RUN INTERRUPTED").Foreground(termenv.ANSIYellow)
	}
	fmt.Fprintln(out, banner.String())
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}
