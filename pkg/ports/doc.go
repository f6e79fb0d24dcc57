/*
Package ports defines the driven ports (interfaces) of the manipulation node.

These interfaces decouple the dispatcher from the messaging framework, allowing
the node to run over an in-process bus, Redis Pub/Sub or an MQTT broker.

# Key Interfaces

  - Publisher: sends a payload to a topic.
  - Subscriber: registers a Handler for a topic.
  - Bus: both directions plus Close.
  - Commander: the synchronous command surface used by request/response adapters (HTTP, MCP).
*/
package ports
