package api

import (
	"time"

	"github.com/nerrad567/mqtt-bridge/internal/session"
)

// Server implements session.Observer: every logged message and connection
// change is fanned out to WebSocket clients, metrics and telemetry.
var _ session.Observer = (*Server)(nil)

// MessageLogged forwards a sent or received entry.
func (s *Server) MessageLogged(dir session.Direction, entry session.LogEntry) {
	s.recorder.MessageLogged(string(dir))

	if s.telemetry != nil {
		s.telemetry.WriteTraffic(string(dir), entry.Topic, len(entry.Payload), entryTime(entry))
	}

	channel := ChannelTrafficReceived
	if dir == session.DirectionSent {
		channel = ChannelTrafficSent
	}
	s.hub.Broadcast(channel, entry)
}

// ConnectFinished records the outcome of a connect attempt.
func (s *Server) ConnectFinished(status session.Status, err error) {
	s.recorder.ConnectAttempt(err == nil)
	s.publishStatus(status)
}

// ConnectionLost records a dropped session.
func (s *Server) ConnectionLost(status session.Status) {
	s.recorder.ConnectionLost()
	s.publishStatus(status)
}

func (s *Server) publishStatus(status session.Status) {
	s.recorder.SetConnected(status.Connected)
	if s.telemetry != nil {
		s.telemetry.WriteConnection(status.Broker, status.Connected, status.LastError, time.Now())
	}
	s.hub.Broadcast(ChannelSessionStatus, status)
}

// entryTime recovers the log timestamp, falling back to now.
func entryTime(entry session.LogEntry) time.Time {
	if at, err := time.Parse(time.RFC3339Nano, entry.Timestamp); err == nil {
		return at
	}
	return time.Now()
}
