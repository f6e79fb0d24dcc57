/*
Package domain contains the core domain models of the manipulation node.

It defines the hold state of the gripper, the commands the node accepts and
the notifications it emits. This package is kept pure and free of external
dependencies like I/O or transport, following Hexagonal Architecture principles.

# Key Entities

  - HoldState: what the node believes it is gripping (nothing, or one labeled object).
  - Command: a tagged variant, either Pick{Label} or Handoff{}.
  - Notification: a typed status result addressed to one outbound Channel.
  - LifecycleHooks: callbacks fired by the dispatcher for observability.
*/
package domain
