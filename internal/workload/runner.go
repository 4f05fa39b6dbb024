package workload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/pavanmanishd/scopedgc"
)

// Node is the payload every workload allocates.
type Node struct {
	Label string
	Edges []*scopedgc.Handle[Node]
}

func (n Node) Trace()  { scopedgc.TraceSlice(n.Edges) }
func (n Node) Unroot() { scopedgc.UnrootSlice(n.Edges) }

// StepResult is the scope state after one step.
type StepResult struct {
	Step    int     `json:"step"`
	Command string  `json:"command"`
	Records int     `json:"records"`
	Rooted  int     `json:"rooted"`
	Bytes   uintptr `json:"bytes"`
}

// Result summarises a finished workload.
type Result struct {
	Name    string                `json:"name"`
	Steps   []StepResult          `json:"steps"`
	Metrics scopedgc.ScopeMetrics `json:"metrics"`
}

// Runner executes workload steps against one scope.
type Runner struct {
	scope   *scopedgc.Scope
	handles map[string]*scopedgc.Handle[Node]
	log     *slog.Logger
}

// NewRunner returns a Runner over s. A nil logger discards output.
func NewRunner(s *scopedgc.Scope, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		scope:   s,
		handles: make(map[string]*scopedgc.Handle[Node]),
		log:     log,
	}
}

// Run executes every step of f in a fresh scope, which is closed on return.
// It stops at the first failing step.
func Run(f *File, log *slog.Logger, opts ...scopedgc.Option) (*Result, error) {
	opts = append([]scopedgc.Option{
		scopedgc.WithName(f.Name),
		scopedgc.WithMaxBytes(uintptr(f.MaxBytes)),
		scopedgc.WithLogger(log),
	}, opts...)

	res := &Result{Name: f.Name}
	err := scopedgc.With(func(s *scopedgc.Scope) error {
		r := NewRunner(s, log)
		defer r.Close()
		for i, line := range f.Steps {
			ran, err := r.Exec(line)
			if err != nil {
				return &StepError{Step: i + 1, Command: line, Err: err}
			}
			if !ran {
				continue
			}
			res.Steps = append(res.Steps, StepResult{
				Step:    i + 1,
				Command: line,
				Records: s.Len(),
				Rooted:  s.Rooted(),
				Bytes:   s.BytesTracked(),
			})
		}
		res.Metrics = s.Metrics()
		return nil
	}, opts...)
	return res, err
}

// Exec runs one step. Blank lines and comments report ran == false.
//
// Commands:
//
//	alloc NAME [LABEL]    allocate a node and bind a rooted handle to NAME
//	dup SRC DST           bind DST to a duplicate of SRC
//	release NAME          release the handle bound to NAME
//	unroot NAME           demote the handle bound to NAME
//	link FROM TO          store a duplicate of TO in FROM's edges
//	unlink FROM           release and drop every edge of FROM
//	collect               run one collection
//	expect KEY=VALUE...   check records, rooted, bytes, freed,
//	                      roots.NAME, valid.NAME (true/false)
func (r *Runner) Exec(line string) (ran bool, err error) {
	args, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(args) == 0 {
		return false, nil
	}

	cmd, args := args[0], args[1:]
	r.log.Debug("workload: step", "command", cmd, "args", args)
	switch cmd {
	case "alloc":
		err = r.alloc(args)
	case "dup":
		err = r.dup(args)
	case "release":
		err = r.each(args, func(h *scopedgc.Handle[Node]) error {
			h.Release()
			return nil
		})
	case "unroot":
		err = r.each(args, unroot)
	case "link":
		err = r.link(args)
	case "unlink":
		err = r.unlink(args)
	case "collect":
		if len(args) != 0 {
			return false, fmt.Errorf("%w: collect takes no arguments", ErrUsage)
		}
		err = r.scope.Collect()
	case "expect":
		err = r.expect(args)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	return err == nil, err
}

// Close releases every bound handle.
func (r *Runner) Close() {
	for _, h := range r.handles {
		h.Release()
	}
	clear(r.handles)
}

func (r *Runner) lookup(name string) (*scopedgc.Handle[Node], error) {
	h, ok := r.handles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandle, name)
	}
	return h, nil
}

// unbound reports an error if name still holds a live root.
func (r *Runner) unbound(name string) error {
	if old, ok := r.handles[name]; ok && old.Valid() && old.Rooted() {
		return fmt.Errorf("%w: %q", ErrHandleBound, name)
	}
	return nil
}

func (r *Runner) alloc(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: alloc NAME [LABEL]", ErrUsage)
	}
	label := args[0]
	if len(args) == 2 {
		label = args[1]
	}
	if err := r.unbound(args[0]); err != nil {
		return err
	}
	h, err := scopedgc.Alloc(r.scope, Node{Label: label})
	if err != nil {
		return err
	}
	r.handles[args[0]] = h
	return nil
}

func (r *Runner) dup(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: dup SRC DST", ErrUsage)
	}
	src, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	if !src.Valid() {
		return fmt.Errorf("dup %s: %w", args[0], deref(src))
	}
	if err := r.unbound(args[1]); err != nil {
		return err
	}
	r.handles[args[1]] = src.Duplicate()
	return nil
}

func (r *Runner) each(names []string, fn func(*scopedgc.Handle[Node]) error) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: expected at least one handle name", ErrUsage)
	}
	for _, name := range names {
		h, err := r.lookup(name)
		if err != nil {
			return err
		}
		if err := fn(h); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// unroot demotes h. Released handles are left alone; collected ones are an
// error rather than a panic.
func unroot(h *scopedgc.Handle[Node]) error {
	if err := deref(h); err != nil && !errors.Is(err, scopedgc.ErrReleased) {
		return err
	}
	h.Unroot()
	return nil
}

func (r *Runner) link(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: link FROM TO", ErrUsage)
	}
	from, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	to, err := r.lookup(args[1])
	if err != nil {
		return err
	}
	if !to.Valid() {
		return fmt.Errorf("link to %s: %w", args[1], deref(to))
	}
	return from.Mutate(func(n *Node) {
		n.Edges = append(n.Edges, to.Duplicate())
	})
}

func (r *Runner) unlink(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: unlink FROM", ErrUsage)
	}
	from, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	return from.Mutate(func(n *Node) {
		for _, e := range n.Edges {
			e.Release()
		}
		n.Edges = nil
	})
}

func (r *Runner) expect(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: expect KEY=VALUE...", ErrUsage)
	}
	var failed []string
	for _, arg := range args {
		key, want, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%w: %q is not KEY=VALUE", ErrUsage, arg)
		}
		got, err := r.observe(key)
		if err != nil {
			return err
		}
		if got != want {
			failed = append(failed, fmt.Sprintf("%s: got %s, want %s", key, got, want))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrExpectation, strings.Join(failed, "; "))
	}
	return nil
}

// observe returns the current value of an expect key as a string.
func (r *Runner) observe(key string) (string, error) {
	switch key {
	case "records":
		return strconv.Itoa(r.scope.Len()), nil
	case "rooted":
		return strconv.Itoa(r.scope.Rooted()), nil
	case "bytes":
		return strconv.FormatUint(uint64(r.scope.BytesTracked()), 10), nil
	case "freed":
		return strconv.Itoa(r.scope.LastCollection().Freed), nil
	}

	kind, name, ok := strings.Cut(key, ".")
	if !ok {
		return "", fmt.Errorf("%w: unknown expect key %q", ErrUsage, key)
	}
	h, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	switch kind {
	case "roots":
		return strconv.Itoa(h.RootCount()), nil
	case "valid":
		return strconv.FormatBool(h.Valid()), nil
	}
	return "", fmt.Errorf("%w: unknown expect key %q", ErrUsage, key)
}

func deref(h *scopedgc.Handle[Node]) error {
	_, err := h.Deref()
	return err
}
