package grasp

// Version is the release of the node, reported by the CLI and the HTTP info endpoint.
const Version = "0.3.0"
