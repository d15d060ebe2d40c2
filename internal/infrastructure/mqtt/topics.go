package mqtt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// maxTopicLength is the largest topic the MQTT length prefix can encode.
const maxTopicLength = 65535

// Wildcard characters.
const (
	wildcardSingle = "+"
	wildcardMulti  = "#"
)

// ValidateTopicName checks a topic used for publishing.
//
// A topic name must be non-empty UTF-8 without NUL characters and must not
// contain wildcards.
//
// Example:
//
//	mqtt.ValidateTopicName("sensors/kitchen/temp") // nil
//	mqtt.ValidateTopicName("sensors/+/temp")       // ErrInvalidTopic
func ValidateTopicName(topic string) error {
	if err := validateTopicString(topic); err != nil {
		return err
	}
	if strings.ContainsAny(topic, wildcardSingle+wildcardMulti) {
		return fmt.Errorf("%w: wildcards are not allowed in a topic name: %q", ErrInvalidTopic, topic)
	}
	return nil
}

// ValidateTopicFilter checks a topic filter used for subscribing.
//
// "+" must occupy a whole level, "#" must be the last level on its own.
//
// Example:
//
//	mqtt.ValidateTopicFilter("sensors/+/temp") // nil
//	mqtt.ValidateTopicFilter("sensors/#")      // nil
//	mqtt.ValidateTopicFilter("sensors/#/temp") // ErrInvalidTopic
func ValidateTopicFilter(filter string) error {
	if err := validateTopicString(filter); err != nil {
		return err
	}

	levels := strings.Split(filter, "/")
	for i, level := range levels {
		if strings.Contains(level, wildcardMulti) && (level != wildcardMulti || i != len(levels)-1) {
			return fmt.Errorf("%w: %q must be the last level on its own: %q", ErrInvalidTopic, wildcardMulti, filter)
		}
		if strings.Contains(level, wildcardSingle) && level != wildcardSingle {
			return fmt.Errorf("%w: %q must occupy a whole level: %q", ErrInvalidTopic, wildcardSingle, filter)
		}
	}
	return nil
}

func validateTopicString(topic string) error {
	switch {
	case topic == "":
		return fmt.Errorf("%w: topic cannot be empty", ErrInvalidTopic)
	case len(topic) > maxTopicLength:
		return fmt.Errorf("%w: topic exceeds %d bytes", ErrInvalidTopic, maxTopicLength)
	case !utf8.ValidString(topic):
		return fmt.Errorf("%w: topic is not valid UTF-8", ErrInvalidTopic)
	case strings.ContainsRune(topic, 0):
		return fmt.Errorf("%w: topic contains NUL", ErrInvalidTopic)
	}
	return nil
}
