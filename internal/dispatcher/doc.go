// Package dispatcher routes execution commands to handlers.
//
// The command resolver turns a key sequence into an invocation: a command
// name such as "_vi_d" and an argument map. The dispatcher is the sink for
// those invocations. It looks the name up in a registry, runs the highest
// priority handler and applies the mode change the handler asks for.
//
// # Handler Execution
//
// When a command is dispatched:
//
//  1. The count argument is clamped to Config.MaxRepeatCount
//  2. The registry finds the highest priority handler
//  3. The handler is executed (with optional panic recovery)
//  4. A requested mode change is applied through the ModeSetter
//  5. Metrics are recorded (if enabled)
//
// Unknown commands and panicking handlers produce error results; they never
// propagate to the resolver, which does not consume results.
//
// # Usage
//
//	d := dispatcher.NewWithDefaults()
//	d.RegisterFunc("_vi_x", func(cmd handler.Command) handler.Result {
//	    return handler.Success()
//	})
//	d.Run("_vi_x", catalog.Args{"count": 1})
package dispatcher
