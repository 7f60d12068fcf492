package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/calvinalkan/typing/internal/config"
	"github.com/calvinalkan/typing/internal/index"
	"github.com/calvinalkan/typing/pkg/typing"
	"github.com/calvinalkan/typing/pkg/vault"
)

var (
	errPathRequired   = errors.New("note path is required")
	errTypeRequired   = errors.New("type name is required")
	errFieldRequired  = errors.New("field name is required")
	errActionRequired = errors.New("action name is required")
	errMethodRequired = errors.New("method name is required")
	errAssignment     = errors.New("expected key=value")
	errFieldAbsent    = errors.New("field not set")
	errIndexDisabled  = errors.New("index is disabled (set index_path to enable it)")
)

// app lazily opens the vault, index and workspace described by cfg.
type app struct {
	cfg *config.Config
	in  io.Reader

	store *vault.Dir
	index *index.Index
	cb    *typing.Callbacks
	ws    *typing.Workspace
}

func newApp(cfg *config.Config, in io.Reader) *app {
	return &app{cfg: cfg, in: in, cb: builtinCallbacks()}
}

// open loads the types file and publishes the first graph. A vault without
// a types file gets an empty graph.
func (a *app) open(ctx context.Context) error {
	if a.ws != nil {
		return nil
	}

	store, err := vault.NewDir(a.cfg.VaultDirAbs)
	if err != nil {
		return fmt.Errorf("open vault: %w", err)
	}

	wcfg := typing.Config{
		Storage:     store,
		Callbacks:   a.cb,
		DefaultType: a.cfg.DefaultType,
		TypeMarker:  a.cfg.WorkspaceTypeMarker(),
	}

	if a.cfg.IndexPathAbs != "" {
		ix, err := index.Open(ctx, a.cfg.IndexPathAbs, store)
		if err != nil {
			return err
		}

		a.index = ix
		wcfg.Index = ix
	}

	ws, err := typing.New(wcfg)
	if err != nil {
		_ = a.close()

		return err
	}

	specs, err := a.loadSpecs(ctx, store)
	if err != nil {
		_ = a.close()

		return err
	}

	_, err = ws.Reload(specs)
	if err != nil {
		_ = a.close()

		return err
	}

	a.store = store
	a.ws = ws

	return nil
}

func (a *app) loadSpecs(ctx context.Context, store vault.Storage) ([]typing.Spec, error) {
	specs, err := config.LoadSpecs(ctx, store, a.cfg.TypesFile)
	if err != nil && vault.IsNotFound(err) {
		return nil, nil
	}

	return specs, err
}

func (a *app) close() error {
	if a.index == nil {
		return nil
	}

	err := a.index.Close()
	a.index = nil

	return err
}

func (a *app) note(ctx context.Context, p string) (*typing.Note, error) {
	if p == "" {
		return nil, errPathRequired
	}

	return a.ws.Note(ctx, p)
}

func (a *app) typeNamed(name string) (*typing.Type, error) {
	if name == "" {
		return nil, errTypeRequired
	}

	t := a.ws.Graph().Get(name)
	if t == nil {
		return nil, &typing.ResolutionError{Type: name, Err: typing.ErrNoSuchType}
	}

	return t, nil
}

// withWorkspace adapts a command body that needs an opened workspace.
func (a *app) withWorkspace(fn func(ctx context.Context, o *IO, args []string) error) func(ctx context.Context, o *IO, args []string) error {
	return func(ctx context.Context, o *IO, args []string) error {
		err := a.open(ctx)
		if err != nil {
			return err
		}

		return fn(ctx, o, args)
	}
}
