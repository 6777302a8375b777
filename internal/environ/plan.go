package environ

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	apperrors "github.com/zorak1103/bootguard/internal/errors"
)

// Action is a single kind of search-path edit.
type Action int

// Edit actions.
const (
	Prepend Action = iota
	InsertAt
	Remove
	Unset
)

func (a Action) String() string {
	switch a {
	case Prepend:
		return "prepend"
	case InsertAt:
		return "insert"
	case Remove:
		return "remove"
	case Unset:
		return "unset"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ModuleSearchPath is the Edit target naming the in-process module search
// path rather than an environment variable.
const ModuleSearchPath = "<module-search-path>"

// Edit is one ordered step of a Plan.
type Edit struct {
	Target string // environment variable name or ModuleSearchPath
	Action Action
	Path   string
	Index  int // only used by InsertAt
}

func (e Edit) String() string {
	switch e.Action {
	case InsertAt:
		return fmt.Sprintf("%s %s[%d] = %s", e.Action, e.Target, e.Index, e.Path)
	case Unset:
		return fmt.Sprintf("%s %s", e.Action, e.Target)
	default:
		return fmt.Sprintf("%s %s %s", e.Action, e.Target, e.Path)
	}
}

// Plan is an ordered list of edits. Applying a plan computed from the state it
// produced yields an empty plan.
type Plan []Edit

// Inputs are everything Compute needs; they are read from the process by
// Configurator and can be built by hand in tests.
type Inputs struct {
	Platform Platform
	Packaged bool
	ExeDir   string
	// SearchPath is the inherited PATH value.
	SearchPath string
	// ModulePathVar names the inherited module search path variable.
	ModulePathVar string
	// InheritedModulePath holds the resolved entries of ModulePathVar.
	InheritedModulePath []string
	// HasModulePath reports whether ModulePathVar was set at all.
	HasModulePath bool
}

// Compute derives the environment plan for in. It has no side effects.
func Compute(in Inputs) Plan {
	var plan Plan

	if in.Platform == Windows && in.Packaged && in.ExeDir != "" {
		entries := splitList(in.SearchPath, in.Platform.ListSeparator())
		if !slices.Contains(entries, in.ExeDir) {
			// Prepends apply in order, so lib ends up second.
			plan = append(plan,
				Edit{Target: "PATH", Action: Prepend, Path: filepath.Join(in.ExeDir, "lib")},
				Edit{Target: "PATH", Action: Prepend, Path: in.ExeDir},
			)
		}
	}

	if !in.HasModulePath || in.ModulePathVar == "" {
		return plan
	}

	// Installed Windows builds never honor an inherited module path.
	if in.Platform == Windows && in.Packaged {
		return append(plan, Edit{Target: in.ModulePathVar, Action: Unset})
	}

	reversed := reverseUnique(in.InheritedModulePath)
	for _, p := range reversed {
		plan = append(plan, Edit{Target: ModuleSearchPath, Action: Remove, Path: p})
	}
	for k, p := range reversed {
		plan = append(plan, Edit{Target: ModuleSearchPath, Action: InsertAt, Index: 1 + k, Path: p})
	}
	return append(plan, Edit{Target: in.ModulePathVar, Action: Unset})
}

// reverseUnique reverses entries, keeping the first declared occurrence of duplicates.
func reverseUnique(entries []string) []string {
	seen := make(map[string]bool, len(entries))
	unique := make([]string, 0, len(entries))
	for _, e := range entries {
		if !seen[e] {
			seen[e] = true
			unique = append(unique, e)
		}
	}
	slices.Reverse(unique)
	return unique
}

// Apply executes plan against env and the module search path modules and
// returns the resulting module search path. Position 0 of the module search
// path is reserved for the current directory and is never edited. Failed
// environment edits are joined into the returned error; the remaining edits
// still run.
func Apply(plan Plan, platform Platform, env Env, modules []string) ([]string, error) {
	out := slices.Clone(modules)
	if len(out) == 0 {
		out = []string{"."}
	}

	var errs []error
	for _, e := range plan {
		if e.Target == ModuleSearchPath {
			out = applyModuleEdit(out, e)
			continue
		}
		if err := applyEnvEdit(env, platform, e); err != nil {
			errs = append(errs, err)
		}
	}
	return out, errors.Join(errs...)
}

func applyModuleEdit(modules []string, e Edit) []string {
	switch e.Action {
	case Remove:
		head, tail := modules[:1], modules[1:]
		tail = slices.DeleteFunc(slices.Clone(tail), func(p string) bool { return p == e.Path })
		return append(slices.Clone(head), tail...)
	case InsertAt:
		idx := min(max(e.Index, 1), len(modules))
		return slices.Insert(modules, idx, e.Path)
	case Prepend:
		return slices.Insert(modules, 1, e.Path)
	default:
		return modules
	}
}

func applyEnvEdit(env Env, platform Platform, e Edit) error {
	sep := platform.ListSeparator()

	if e.Action == Unset {
		if err := env.Unsetenv(e.Target); err != nil {
			return &apperrors.EnvironmentError{Var: e.Target, Op: e.Action.String(), Err: err}
		}
		return nil
	}

	current, _ := env.LookupEnv(e.Target)
	entries := splitList(current, sep)

	switch e.Action {
	case Prepend:
		entries = slices.Insert(entries, 0, e.Path)
	case InsertAt:
		entries = slices.Insert(entries, min(max(e.Index, 0), len(entries)), e.Path)
	case Remove:
		entries = slices.DeleteFunc(entries, func(p string) bool { return p == e.Path })
	}

	if err := env.Setenv(e.Target, joinList(entries, sep)); err != nil {
		return &apperrors.EnvironmentError{Var: e.Target, Op: e.Action.String(), Err: err}
	}
	return nil
}
