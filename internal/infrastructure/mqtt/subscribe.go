package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
)

// subscribeQoS is the maximum QoS requested for every subscription.
const subscribeQoS = 0

// subackFailure is the SUBACK return code for a rejected filter.
const subackFailure = 0x80

// Subscribe asks the broker to deliver messages matching topic.
//
// Messages for every filter go to the handler set with SetMessageHandler, so
// no per-filter callback is registered with paho.
//
// Parameters:
//   - topic: The topic filter; + and # wildcards are allowed
//
// Returns:
//   - byte: The SUBACK return code for the filter (0x80 when rejected)
//   - error: ErrInvalidTopic, ErrNotConnected or ErrSubscribeFailed
func (t *Transport) Subscribe(topic string) (byte, error) {
	if err := ValidateTopicFilter(topic); err != nil {
		return packets.Accepted, err
	}

	client, err := t.connectedClient()
	if err != nil {
		return packets.Accepted, err
	}

	token := client.Subscribe(topic, subscribeQoS, nil)
	if !token.WaitTimeout(t.cfg.SubscribeTimeout) {
		return packets.Accepted, fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, t.cfg.SubscribeTimeout)
	}

	code := subscribeResult(token, topic)
	if err := token.Error(); err != nil {
		return code, fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return code, nil
}

// resulter is implemented by paho's SubscribeToken.
type resulter interface {
	Result() map[string]byte
}

// subscribeResult extracts the SUBACK code for topic from a completed token.
// A granted QoS (0-2) is reported as success.
func subscribeResult(token pahomqtt.Token, topic string) byte {
	st, ok := token.(resulter)
	if !ok {
		return packets.Accepted
	}
	if code, found := st.Result()[topic]; found && code == subackFailure {
		return subackFailure
	}
	return packets.Accepted
}
