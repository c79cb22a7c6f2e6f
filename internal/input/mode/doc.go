// Package mode defines the editing modes used by the command resolver.
//
// The modes follow Vim:
//   - Normal: navigation and commands
//   - Insert, Replace: text input
//   - Visual, Visual Line, Visual Block: selection
//   - Select: selection replaced by typed text
//   - Operator-pending: an operator is waiting for its motion
//
// Two modes never appear to the user between commands. InternalNormal is
// entered while a resolved operator+motion edit executes and is left as soon
// as it returns. Unknown is the value of a session that has not been
// initialized yet.
//
// # Transitions
//
//	┌────────┐  operator   ┌──────────────────┐
//	│ Normal │ ──────────▶ │ Operator-pending │
//	└────────┘             └──────────────────┘
//	     ▲                          │ motion
//	     └──────────────────────────┘
//
// Visual modes never enter operator-pending: an operator set while a
// selection is active acts on the selection.
package mode
