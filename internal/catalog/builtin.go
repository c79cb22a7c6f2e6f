package catalog

import (
	"strconv"
)

// Builtin returns a catalog with the reference motions and actions.
func Builtin() *Catalog {
	c := New()

	c.RegisterMotion("vi_j", lineMotion("_vi_j"))
	c.RegisterMotion("vi_k", lineMotion("_vi_k"))
	c.RegisterMotion("vi_w", counted("_vi_w"))
	c.RegisterMotion("vi_dollar", counted("_vi_dollar"))
	c.RegisterMotion("vi_f", findInLine)
	c.RegisterMotion("vi_slash", searchForward)

	c.RegisterAction("vi_d", registerAction("_vi_d"))
	c.RegisterAction("vi_y", registerAction("_vi_y"))
	c.RegisterAction("vi_x", registerAction("_vi_x"))
	c.RegisterAction("vi_i", enterInsert)
	c.RegisterAction("vi_q", recordMacro)
	c.RegisterAction("vi_at", playMacro)
	c.RegisterAction("vi_dot", repeatLast)
	c.RegisterAction("vi_u", counted("_vi_u"))

	return c
}

// base returns the arguments shared by every counted command.
func base(env *Env) (Args, error) {
	count, err := env.State.Count()
	if err != nil {
		return nil, err
	}
	return Args{
		"mode":  env.State.Mode(),
		"count": count,
	}, nil
}

// counted passes only the mode and the count.
func counted(command string) Func {
	return func(env *Env) (Invocation, error) {
		args, err := base(env)
		if err != nil {
			return Invocation{}, err
		}
		return Invocation{Command: command, Args: args}, nil
	}
}

// lineMotion moves by lines and keeps the sticky column.
func lineMotion(command string) Func {
	return func(env *Env) (Invocation, error) {
		args, err := base(env)
		if err != nil {
			return Invocation{}, err
		}
		args["xpos"] = env.State.Xpos()
		return Invocation{Command: command, Args: args}, nil
	}
}

func findInLine(env *Env) (Invocation, error) {
	args, err := base(env)
	if err != nil {
		return Invocation{}, err
	}
	char := env.State.UserInput()
	args["char"] = char
	args["inclusive"] = true
	args["forward"] = true

	env.State.SetLastCharacterSearch(char)
	env.State.SetLastCharacterSearchForward(true)
	return Invocation{Command: "_vi_find_in_line", Args: args}, nil
}

func searchForward(env *Env) (Invocation, error) {
	args, err := base(env)
	if err != nil {
		return Invocation{}, err
	}
	pattern := env.State.UserInput()
	if pattern == "" {
		pattern = env.State.LastBufferSearch()
	}
	args["search_string"] = pattern

	env.State.SetLastBufferSearch(pattern)
	return Invocation{Command: "_vi_slash", Args: args}, nil
}

func registerAction(command string) Func {
	return func(env *Env) (Invocation, error) {
		args, err := base(env)
		if err != nil {
			return Invocation{}, err
		}
		args["register"] = env.State.Register()
		return Invocation{Command: command, Args: args}, nil
	}
}

// enterInsert opens an insert that is glued into one undo step until the
// user returns to normal mode.
func enterInsert(env *Env) (Invocation, error) {
	args, err := base(env)
	if err != nil {
		return Invocation{}, err
	}
	env.State.SetGlueUntilNormalMode(true)
	env.State.SetNormalInsertCount(strconv.Itoa(args.IntOr("count", 1)))
	return Invocation{Command: "_enter_insert_mode", Args: args}, nil
}

// recordMacro starts recording into the register collected as input, or
// stops recording when no register was collected.
func recordMacro(env *Env) (Invocation, error) {
	return Invocation{
		Command: "_vi_q",
		Args: Args{
			"mode": env.State.Mode(),
			"name": env.State.UserInput(),
		},
	}, nil
}

func playMacro(env *Env) (Invocation, error) {
	args, err := base(env)
	if err != nil {
		return Invocation{}, err
	}
	name := env.State.UserInput()
	if name == "@" {
		name = env.State.LastMacro()
	}
	args["name"] = name
	return Invocation{Command: "_vi_at", Args: args}, nil
}

func repeatLast(env *Env) (Invocation, error) {
	args, err := base(env)
	if err != nil {
		return Invocation{}, err
	}
	if rd := env.State.RepeatData(); rd != nil {
		args["repeat_data"] = *rd
	}
	return Invocation{Command: "_vi_dot", Args: args}, nil
}
