package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// publishQoS is used for every outbound message.
const publishQoS = 0

// Publish sends payload to topic at QoS 0, not retained.
//
// The message is handed to paho without waiting for it to be written. Only a
// failure paho has already recorded on the token is returned.
//
// Parameters:
//   - topic: A concrete topic name; wildcards are rejected
//   - payload: The message body, max 1MB
//
// Returns:
//   - error: ErrInvalidTopic, ErrPayloadTooLarge, ErrNotConnected or ErrPublishFailed
func (t *Transport) Publish(topic string, payload []byte) error {
	if err := ValidateTopicName(topic); err != nil {
		return err
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %d bytes exceeds maximum %d", ErrPayloadTooLarge, len(payload), maxPayloadSize)
	}

	client, err := t.connectedClient()
	if err != nil {
		return err
	}

	token := client.Publish(topic, publishQoS, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
	default:
	}

	return nil
}
