// Package session manages the single MQTT broker session behind the web bridge.
//
// A Session owns:
//   - The connection lifecycle (connect with a bounded wait, teardown on failure)
//   - The set of active topic subscriptions
//   - A bounded history of sent and received messages (LogBuffer)
//
// The MQTT protocol itself is delegated to a Transport. The Transport delivers
// connect results, inbound messages and connection loss on its own goroutines;
// the Session serialises those events against foreground calls.
//
// # Lifecycle
//
//	sess := session.New(transport, session.WithLogger(log))
//	if err := sess.Connect("localhost:1883"); err != nil {
//	    // errors.Is(err, session.ErrConnection)
//	}
//	sess.Publish("test/topic", "hello")
//	topics, err := sess.Subscribe("test/#")
//	logs := sess.Logs()
//
// Every call to Connect discards the previous session: subscriptions, the
// last error and both message logs are cleared before the new attempt starts.
//
// # Errors
//
// Failures carry one of four kinds, checked with errors.Is:
//   - ErrInput: a required field was empty or malformed
//   - ErrNotConnected: the operation needs an active session
//   - ErrConnection: the broker refused the connection or it timed out
//   - ErrTransport: the Transport rejected an attempted operation
package session
