package resolver

import (
	"fmt"

	"github.com/dshills/vintage/internal/catalog"
	"github.com/dshills/vintage/internal/input/mode"
	"github.com/dshills/vintage/internal/session"
)

// Eval runs the pending command when it is runnable.
//
// Exactly one execution command reaches the sink per runnable command. The
// command data is reset afterwards on every path, and internal normal mode
// never outlives the call.
func (r *Resolver) Eval() error {
	runnable, err := r.Runnable()
	if err != nil || !runnable {
		return err
	}

	s := r.state
	defer r.finish()

	action, motion := s.Action(), s.Motion()
	env := &catalog.Env{State: s, View: s.View()}

	switch {
	case action != nil && motion != nil:
		return r.evalFull(env, action, motion)
	case s.CanRunAction():
		return r.evalAction(env, action)
	default:
		return r.evalMotion(env, motion)
	}
}

// finish leaves internal normal mode and clears the command data.
func (r *Resolver) finish() {
	if r.state.Mode() == mode.InternalNormal {
		r.state.EnterNormalMode()
	}
	r.state.ResetCommandData()
}

func (r *Resolver) evalFull(env *catalog.Env, action, motion *session.Descriptor) error {
	s := r.state
	entry := s.Mode()

	// Both entries see the mode the command was typed in.
	actionFn, ok := r.catalog.Action(action.Name)
	if !ok {
		r.warn("action not implemented: %s", action.Name)
		return nil
	}
	actionInv, err := actionFn(env)
	if err != nil {
		return fmt.Errorf("action %s: %w", action.Name, err)
	}
	motionFn, ok := r.catalog.Motion(motion.Name)
	if !ok {
		r.warn("motion not implemented: %s", motion.Name)
		return nil
	}
	motionInv, err := motionFn(env)
	if err != nil {
		return fmt.Errorf("motion %s: %w", motion.Name, err)
	}

	r.info("full command, switching to internal normal mode")
	s.SetMode(mode.InternalNormal)
	injectMode(actionInv.Args, mode.InternalNormal)
	injectMode(motionInv.Args, mode.InternalNormal)

	args := actionInv.Args.Clone()
	// The count lives in the motion; the operator runs once over it.
	args["count"] = 1
	args["motion"] = motionInv

	r.requestGlue()

	seq := s.Sequence()
	r.run(actionInv.Command, args)

	if !s.NonInteractive() && action.Repeatable {
		s.SetRepeatData(&session.RepeatData{Kind: session.RepeatVi, Sequence: seq, Mode: entry})
	}
	return nil
}

func (r *Resolver) evalMotion(env *catalog.Env, motion *session.Descriptor) error {
	fn, ok := r.catalog.Motion(motion.Name)
	if !ok {
		r.warn("motion not implemented: %s", motion.Name)
		return nil
	}
	inv, err := fn(env)
	if err != nil {
		return fmt.Errorf("motion %s: %w", motion.Name, err)
	}

	r.info("lone motion: %s", inv)
	r.run(inv.Command, inv.Args)
	return nil
}

func (r *Resolver) evalAction(env *catalog.Env, action *session.Descriptor) error {
	s := r.state
	entry := s.Mode()

	fn, ok := r.catalog.Action(action.Name)
	if !ok {
		r.warn("action not implemented: %s", action.Name)
		return nil
	}

	inv, err := fn(env)
	if err != nil {
		return fmt.Errorf("action %s: %w", action.Name, err)
	}

	switch entry {
	case mode.Normal:
		r.info("lone action, switching to internal normal mode")
		s.SetMode(mode.InternalNormal)
		injectMode(inv.Args, mode.InternalNormal)
	case mode.Visual, mode.VisualLine:
		if v := s.View(); v != nil {
			v.AddRegions(VisualSelectionKey, v.Selections())
		}
	}

	r.requestGlue()

	seq := s.Sequence()
	visual := r.VisualRepeatData()
	r.run(inv.Command, inv.Args)

	if s.GluingSequence() && s.GlueUntilNormalMode() {
		// The enclosing sequence records itself when it ends.
		return nil
	}
	if action.Repeatable {
		s.SetRepeatData(&session.RepeatData{Kind: session.RepeatVi, Sequence: seq, Mode: entry, Visual: visual})
	}
	return nil
}

// requestGlue starts grouping undo steps when the action asked for glue
// and no enclosing gluing sequence is active.
func (r *Resolver) requestGlue() {
	s := r.state
	if !s.GlueUntilNormalMode() || s.GluingSequence() {
		return
	}
	if u := s.Undo(); u != nil {
		u.BeginGrouping()
	}
}

func (r *Resolver) run(command string, args catalog.Args) {
	r.debug("run %s", catalog.Invocation{Command: command, Args: args})
	if r.sink == nil {
		r.warn("no sink for %s", command)
		return
	}
	r.sink.Run(command, args)
}

// injectMode overwrites the mode argument when the entry carries one.
func injectMode(args catalog.Args, m mode.Mode) {
	if args.Has("mode") {
		args["mode"] = m
	}
}
