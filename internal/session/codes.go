package session

import "fmt"

// Transport result codes. Values 0x00-0x05 are the MQTT 3.1.1 CONNACK return
// codes, 0x80 is the SUBACK failure code and 0xFE/0xFF are the values paho
// uses for network errors and protocol violations.
const (
	CodeAccepted               byte = 0x00
	CodeRefusedProtocolVersion byte = 0x01
	CodeRefusedIdentifier      byte = 0x02
	CodeRefusedUnavailable     byte = 0x03
	CodeRefusedCredentials     byte = 0x04
	CodeRefusedNotAuthorised   byte = 0x05
	CodeSubscribeFailure       byte = 0x80
	CodeNetworkError           byte = 0xFE
	CodeProtocolViolation      byte = 0xFF
)

var codeText = map[byte]string{
	CodeAccepted:               "Connection accepted",
	CodeRefusedProtocolVersion: "Connection refused: unacceptable protocol version",
	CodeRefusedIdentifier:      "Connection refused: identifier rejected",
	CodeRefusedUnavailable:     "Connection refused: server unavailable",
	CodeRefusedCredentials:     "Connection refused: bad username or password",
	CodeRefusedNotAuthorised:   "Connection refused: not authorised",
	CodeSubscribeFailure:       "Subscription rejected by broker",
	CodeNetworkError:           "Network error",
	CodeProtocolViolation:      "Protocol violation",
}

// Describe returns a human-readable reason for a Transport result code.
func Describe(code byte) string {
	if text, ok := codeText[code]; ok {
		return text
	}
	return fmt.Sprintf("Unknown error (code %d)", code)
}
