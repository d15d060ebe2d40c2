// Package api implements the HTTP REST API and WebSocket server for the MQTT bridge.
//
// This package provides:
//   - REST endpoints over the shared MQTT session (connect, publish,
//     subscribe, subscriptions, logs, status)
//   - Control of the periodic test publisher
//   - WebSocket hub streaming sent/received traffic and session status
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - The Prometheus exposition handler and the embedded web UI
//
// # Error Responses
//
// Every defined session failure is answered with HTTP 400 and a body of
// the form {"status":400,"code":...,"message":...}, where code is one of
// bad_request, not_connected, connection_error or transport_error. Any other
// failure is a 500 whose detail is logged, not returned.
//
// # Lifecycle
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// The server registers itself as a session observer in New, so events are
// broadcast even before Start; WebSocket clients simply see none until they
// connect.
package api
