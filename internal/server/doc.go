// Package server provides the HTTP surface of healthboard.
//
// It mounts four groups of routes on one chi router:
//
//   - Dashboard: index.html from the static root at "/", with the configured
//     title substituted, and any other file below the root at its path.
//   - Proxy: "/api/{endpointID}" forwards to a registered health endpoint.
//   - Board API: the latest snapshot, SSE and WebSocket streams, and the
//     refresh, pause and resume controls under "/board".
//   - Panels: the illustrative jobs and replication panels under
//     "/board/panels".
//
// Cross-origin requests are allowed from any origin. The server shuts down
// gracefully when its context is cancelled, allowing 5 seconds for in-flight
// requests; streaming handlers end at the same moment.
package server
