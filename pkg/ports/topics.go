package ports

import "github.com/aretw0/grasp/pkg/domain"

// Topics maps the node's inbound commands and outbound channels to bus topic names.
type Topics struct {
	Pick            string `yaml:"pick" mapstructure:"pick"`
	Handoff         string `yaml:"handoff" mapstructure:"handoff"`
	Feedback        string `yaml:"feedback" mapstructure:"feedback"`
	ObjectAcquired  string `yaml:"object_acquired" mapstructure:"object_acquired"`
	HandoffComplete string `yaml:"handoff_complete" mapstructure:"handoff_complete"`
}

// DefaultTopics returns the topic layout of the manipulation subsystem.
func DefaultTopics() Topics {
	return Topics{
		Pick:            "/manipulation/pick",
		Handoff:         "/manipulation/handoff",
		Feedback:        "/manipulation/feedback",
		ObjectAcquired:  "/manipulation/object_acquired",
		HandoffComplete: "/manipulation/handoff_complete",
	}
}

// For returns the topic notifications on ch are published to.
func (t Topics) For(ch domain.Channel) string {
	switch ch {
	case domain.ChannelObjectAcquired:
		return t.ObjectAcquired
	case domain.ChannelHandoffComplete:
		return t.HandoffComplete
	default:
		return t.Feedback
	}
}

// ChannelOf is the inverse of For. It reports false for topics that carry no notifications.
func (t Topics) ChannelOf(topic string) (domain.Channel, bool) {
	for _, ch := range domain.Channels() {
		if t.For(ch) == topic {
			return ch, true
		}
	}
	return "", false
}

// Outbound lists the notification topics in channel order.
func (t Topics) Outbound() []string {
	return []string{t.Feedback, t.ObjectAcquired, t.HandoffComplete}
}

// WithDefaults fills empty fields from DefaultTopics.
func (t Topics) WithDefaults() Topics {
	d := DefaultTopics()
	if t.Pick == "" {
		t.Pick = d.Pick
	}
	if t.Handoff == "" {
		t.Handoff = d.Handoff
	}
	if t.Feedback == "" {
		t.Feedback = d.Feedback
	}
	if t.ObjectAcquired == "" {
		t.ObjectAcquired = d.ObjectAcquired
	}
	if t.HandoffComplete == "" {
		t.HandoffComplete = d.HandoffComplete
	}
	return t
}
