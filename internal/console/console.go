// Package console runs an interactive read-eval-print loop.
//
// Start launches the loop on its own goroutine and returns immediately.
// The caller gets no handle: the session lives until its input ends or
// the user types .quit, or until the process exits. Config.OnExit, if set,
// is called from the console goroutine when the session ends.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"go.starlark.net/starlark"
)

// Default prompts.
const (
	DefaultPrompt         = "drnsf> "
	DefaultContinuePrompt = "  ...> "
)

// Evaluator executes console input.
type Evaluator interface {
	// EvalChunk reads one statement through readline, which may be called
	// again while the statement is incomplete, and executes it.
	EvalChunk(readline func() ([]byte, error)) error

	// Names returns the identifiers offered for completion.
	Names() []string
}

// LineReader is the subset of *readline.Instance the loop uses.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

// Config configures a console session.
type Config struct {
	Prompt         string
	ContinuePrompt string
	HistoryFile    string
	Banner         string

	// Out and Err receive results and errors. Nil means stdout and stderr.
	Out io.Writer
	Err io.Writer

	// Reader supplies input. When nil a readline instance on the terminal
	// is created.
	Reader LineReader

	Logger    *slog.Logger
	SessionID string

	// OnExit is called once the session has ended, with the error that
	// ended it or nil for a normal exit.
	OnExit func(err error)
}

func (c *Config) setDefaults() {
	if c.Prompt == "" {
		c.Prompt = DefaultPrompt
	}
	if c.ContinuePrompt == "" {
		c.ContinuePrompt = DefaultContinuePrompt
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Err == nil {
		c.Err = os.Stderr
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
}

// Start runs a console session on a new goroutine and returns at once.
func Start(eval Evaluator, cfg Config) {
	go func() {
		err := Run(eval, cfg)
		if cfg.OnExit != nil {
			cfg.OnExit(err)
		}
	}()
}

// Run runs a console session on the calling goroutine until it ends.
func Run(eval Evaluator, cfg Config) error {
	cfg.setDefaults()
	logger := cfg.Logger.With(slog.String("session", cfg.SessionID))

	rd := cfg.Reader
	if rd == nil {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          cfg.Prompt,
			HistoryFile:     cfg.HistoryFile,
			AutoComplete:    newCompleter(eval),
			InterruptPrompt: "^C",
			EOFPrompt:       ".quit",
			Stdout:          cfg.Out,
			Stderr:          cfg.Err,
		})
		if err != nil {
			logger.Error("console failed to start", slog.String("error", err.Error()))
			return fmt.Errorf("failed to initialize console: %w", err)
		}
		rd = rl
	}
	defer func() { _ = rd.Close() }()

	c := &session{eval: eval, cfg: cfg, rd: rd, logger: logger, styles: newStyles(cfg.Err)}
	logger.Info("console started")
	err := c.loop()
	logger.Info("console ended")
	return err
}

type session struct {
	eval   Evaluator
	cfg    Config
	rd     LineReader
	logger *slog.Logger
	styles styles
}

func (c *session) loop() error {
	if c.cfg.Banner != "" {
		_, _ = fmt.Fprintln(c.cfg.Out, c.styles.banner.Render(c.cfg.Banner))
	}
	_, _ = fmt.Fprintln(c.cfg.Out, "Type .help for commands, .quit to exit")

	for {
		c.rd.SetPrompt(c.cfg.Prompt)
		line, err := c.rd.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ".") {
			if c.dotCommand(trimmed) {
				return nil
			}
			continue
		}

		eof, err := c.evalChunk(line)
		if err != nil {
			if !c.report(err) {
				return err
			}
		}
		if eof {
			return nil
		}
	}
}

// evalChunk feeds line and any continuation lines to the evaluator. It
// reports whether input ended while the statement was incomplete.
func (c *session) evalChunk(first string) (eof bool, err error) {
	pending := true
	interrupted := false
	err = c.eval.EvalChunk(func() ([]byte, error) {
		if pending {
			pending = false
			return []byte(first + "\n"), nil
		}
		c.rd.SetPrompt(c.cfg.ContinuePrompt)
		line, err := c.rd.Readline()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				eof = true
			case errors.Is(err, readline.ErrInterrupt):
				interrupted = true
			}
			return nil, err
		}
		return []byte(line + "\n"), nil
	})
	if eof || interrupted {
		return eof, nil
	}
	return false, err
}

// report prints an evaluation error. It returns false when the error ends
// the session.
func (c *session) report(err error) bool {
	if errors.Is(err, errStop) {
		return false
	}
	var evalErr *starlark.EvalError
	msg := err.Error()
	if errors.As(err, &evalErr) {
		msg = evalErr.Backtrace()
	}
	c.logger.Debug("console evaluation failed", slog.String("error", err.Error()))
	_, _ = fmt.Fprintln(c.cfg.Err, c.styles.err.Render("Error: ")+msg)
	return true
}

// errStop lets an evaluator end the session.
var errStop = errors.New("console stopped")

// Stop wraps err so that returning it from EvalChunk ends the session.
func Stop(err error) error {
	if err == nil {
		return errStop
	}
	return fmt.Errorf("%w: %w", errStop, err)
}

// dotCommand handles console commands. It reports whether the session
// should end.
func (c *session) dotCommand(line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true
	case ".help":
		printHelp(c.cfg.Out)
	case ".names":
		for _, name := range c.eval.Names() {
			_, _ = fmt.Fprintln(c.cfg.Out, name)
		}
	case ".clear":
		_, _ = fmt.Fprint(c.cfg.Out, "\033[H\033[2J")
	default:
		_, _ = fmt.Fprintf(c.cfg.Err, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func printHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .names          List global names
  .clear          Clear the screen
  .quit / .exit   Leave the console

Scripting:
  P()                     current project, or None
  eachatom()              every atom of the current project
  p.eachatom()            every atom of project p
  a.eachchild()           children of atom a
  a.eachdescendant()      atoms below a
  with_project(p, fn)     call fn() with p as the current project
  pushproject(p) / popproject()
`
	_, _ = fmt.Fprintln(w, help)
}

// newCompleter offers global names and dot commands.
func newCompleter(eval Evaluator) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range eval.Names() {
		items = append(items, readline.PcItem(name))
	}
	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".names"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}

type styles struct {
	banner lipgloss.Style
	err    lipgloss.Style
}

// newStyles renders for w, so output to a pipe or buffer carries no
// escape codes.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		banner: r.NewStyle().Bold(true),
		err:    r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

// NewLineReader returns a LineReader over r for input that is not a
// terminal, such as a script piped into the console. It shows no prompt.
func NewLineReader(r io.Reader) LineReader {
	return &lineReader{sc: bufio.NewScanner(r)}
}

type lineReader struct {
	sc *bufio.Scanner
}

func (r *lineReader) Readline() (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}
	if err := r.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (r *lineReader) SetPrompt(string) {}
func (r *lineReader) Close() error     { return nil }
