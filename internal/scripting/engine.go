// Package scripting embeds a Starlark interpreter into the host and exposes
// the atom tree, the current-project stack and an interactive console to
// scripts.
//
// An Engine is the single owner of the project stack. The host goroutine
// creates it, calls Init, and brackets any mutation of shared projects
// with Lock and Unlock. Script evaluation (console chunks, ExecFile) takes
// the same access lock for the duration of each chunk, so a console running
// on another goroutine never observes a tree that the host is halfway
// through changing.
package scripting

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/drnsf/drnsf/internal/console"
	"github.com/drnsf/drnsf/internal/macro"
	"github.com/drnsf/drnsf/pkg/res"
	"github.com/drnsf/drnsf/pkg/scope"
	"github.com/google/uuid"
	"go.starlark.net/starlark"
)

var (
	// ErrShutdown is returned once the engine has been shut down.
	ErrShutdown = errors.New("scripting engine is shut down")

	// ErrNotLocked is returned by Unlock without a matching Lock.
	ErrNotLocked = errors.New("scripting engine is not locked")

	// ErrNotInit is returned by evaluation before Init.
	ErrNotInit = errors.New("scripting engine is not initialized")
)

type engineState int

const (
	stateNew engineState = iota
	stateReady
	stateShutdown
)

// Engine holds the interpreter state shared by every script and console.
type Engine struct {
	logger     *slog.Logger
	scriptsDir string
	out        io.Writer
	errOut     io.Writer
	consoleCfg console.Config

	stack *scope.Stack[*res.Project]

	// access is held by the host between Lock and Unlock, and by every
	// script evaluation while it runs.
	access    sync.Mutex
	lockMu    sync.Mutex
	lockDepth int

	// mu protects state, globals and projects.
	mu       sync.RWMutex
	state    engineState
	globals  starlark.StringDict
	projects map[string]*res.Project
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithScriptsDir sets the directory of startup scripts loaded by Init.
func WithScriptsDir(dir string) Option {
	return func(e *Engine) {
		e.scriptsDir = dir
	}
}

// WithOutput sets where script print() output and errors go.
func WithOutput(out, errOut io.Writer) Option {
	return func(e *Engine) {
		if out != nil {
			e.out = out
		}
		if errOut != nil {
			e.errOut = errOut
		}
	}
}

// WithConsole sets the configuration used by StartConsole.
func WithConsole(cfg console.Config) Option {
	return func(e *Engine) {
		e.consoleCfg = cfg
	}
}

// WithProjects registers projects by name.
func WithProjects(projects ...*res.Project) Option {
	return func(e *Engine) {
		for _, p := range projects {
			e.projects[p.Name] = p
		}
	}
}

// New creates an engine. It must be initialized with Init before use.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.New(slog.DiscardHandler),
		out:      os.Stdout,
		errOut:   os.Stderr,
		stack:    scope.NewStack[*res.Project](),
		projects: make(map[string]*res.Project),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init registers the builtins and loads startup scripts. Calling Init on an
// initialized engine does nothing; calling it after Shutdown fails.
func (e *Engine) Init() error {
	e.mu.RLock()
	state := e.state
	e.mu.RUnlock()

	switch state {
	case stateReady:
		return nil
	case stateShutdown:
		return ErrShutdown
	}

	// Startup scripts run with the builtins available, and builtins such as
	// projects() take e.mu, so loading happens before the lock is taken.
	globals := e.Predeclared()

	registry := macro.NewRegistry(BuiltinNames...)
	modules, err := macro.NewLoader(e.scriptsDir, globals).Load()
	if err != nil {
		return fmt.Errorf("failed to load startup scripts: %w", err)
	}
	if err := registry.RegisterAll(modules); err != nil {
		return err
	}
	for name, ns := range registry.ToStarlarkDict() {
		globals[name] = ns
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateNew {
		return nil
	}
	e.globals = globals
	e.state = stateReady
	e.logger.Debug("scripting engine initialized",
		slog.String("scripts_dir", e.scriptsDir),
		slog.Int("namespaces", registry.Len()))
	return nil
}

// IsInit reports whether Init succeeded and Shutdown has not been called.
func (e *Engine) IsInit() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == stateReady
}

// Shutdown makes the engine unusable. Running console sessions end at
// their next chunk. It is a no-op unless the engine is initialized.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != stateReady {
		return
	}
	e.state = stateShutdown
	e.globals = nil
	e.logger.Debug("scripting engine shut down")
}

// Lock blocks script evaluation on other goroutines until the matching
// Unlock. Calls nest. Lock and Unlock are ignored while the engine is not
// initialized.
//
// Nesting is counted, not tied to a goroutine: only one host goroutine may
// use Lock, Unlock and Locked. A second caller would enter without
// waiting.
func (e *Engine) Lock() {
	if !e.IsInit() {
		return
	}
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	if e.lockDepth == 0 {
		e.access.Lock()
	}
	e.lockDepth++
}

// Unlock releases one level of Lock.
func (e *Engine) Unlock() error {
	e.lockMu.Lock()
	defer e.lockMu.Unlock()
	if e.lockDepth == 0 {
		if !e.IsInit() {
			return nil
		}
		return ErrNotLocked
	}
	e.lockDepth--
	if e.lockDepth == 0 {
		e.access.Unlock()
	}
	return nil
}

// Locked runs fn while holding the host lock. The single-goroutine rule of
// Lock applies.
func (e *Engine) Locked(fn func()) {
	e.Lock()
	defer func() { _ = e.Unlock() }()
	fn()
}

// Stack returns the current-project stack.
func (e *Engine) Stack() *scope.Stack[*res.Project] {
	return e.stack
}

// Enter makes p the current project until the returned guard exits.
func (e *Engine) Enter(p *res.Project) *scope.Guard[*res.Project] {
	return e.stack.Enter(p)
}

// Current returns the current project, if any.
func (e *Engine) Current() (*res.Project, bool) {
	return e.stack.Current()
}

// AddProject registers p under its name, replacing any earlier project of
// the same name.
func (e *Engine) AddProject(p *res.Project) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.projects[p.Name] = p
}

// Projects returns a copy of the registered projects.
func (e *Engine) Projects() map[string]*res.Project {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]*res.Project, len(e.projects))
	for name, p := range e.projects {
		out[name] = p
	}
	return out
}

// Globals returns a fresh copy of the globals a new script starts with.
func (e *Engine) Globals() (starlark.StringDict, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	switch e.state {
	case stateNew:
		return nil, ErrNotInit
	case stateShutdown:
		return nil, ErrShutdown
	}
	globals := make(starlark.StringDict, len(e.globals))
	for k, v := range e.globals {
		globals[k] = v
	}
	return globals, nil
}

// StartConsole launches an interactive console on its own goroutine and
// returns at once. There is no handle to wait for or stop it; the session
// ends when its input does. Console output goes to the configured console
// writers, falling back to the engine's.
func (e *Engine) StartConsole() {
	cfg := e.consoleCfg
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.Out == nil {
		cfg.Out = e.out
	}
	if cfg.Err == nil {
		cfg.Err = e.errOut
	}
	if cfg.Logger == nil {
		cfg.Logger = e.logger
	}

	sess, err := e.NewSession("<console>", cfg.Out)
	if err != nil {
		e.logger.Warn("console not started", slog.String("error", err.Error()))
		if cfg.OnExit != nil {
			go cfg.OnExit(err)
		}
		return
	}
	console.Start(sess, cfg)
}
