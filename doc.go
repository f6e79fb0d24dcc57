/*
Package grasp is a publish/subscribe node for a robot manipulation subsystem.

The node keeps one piece of state, what the gripper is holding, and reacts to
two commands: Pick, which grasps a labeled object, and Handoff, which releases
it to another agent. Every command is answered with status lines on three
outbound topics:

	/manipulation/feedback          general status of every command
	/manipulation/object_acquired   milestone: a pick completed
	/manipulation/handoff_complete  milestone: a handoff completed

Status lines have the form

	success true; status_code 0; message: Successfully picked apple

# Architecture

Commands are applied one at a time by a single dispatch loop, so the hold
state needs no coordination beyond that loop. The transport is a port
(ports.Bus) with in-memory, Redis Pub/Sub and MQTT adapters; HTTP and MCP
adapters submit commands synchronously through the same loop.

# Usage

	node, err := grasp.New(grasp.WithBus(bus), grasp.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := node.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package grasp
