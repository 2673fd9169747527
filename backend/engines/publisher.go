package engines

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// TeePublisher forwards every message to a primary publisher and, best
// effort, to a secondary one. The reference backend uses it to mirror local
// status snapshots onto a redis stream so sibling instances see them; a
// relay failure never fails the local publish.
type TeePublisher struct {
	primary   message.Publisher
	secondary message.Publisher
	log       zerolog.Logger
}

// NewTeePublisher wires the pair. secondary may not be nil; pass the primary
// alone when there is nothing to mirror to.
func NewTeePublisher(primary, secondary message.Publisher, log zerolog.Logger) *TeePublisher {
	return &TeePublisher{
		primary:   primary,
		secondary: secondary,
		log:       log.With().Str("component", "relay").Logger(),
	}
}

// Publish sends to the primary, then mirrors to the secondary.
func (p *TeePublisher) Publish(topic string, messages ...*message.Message) error {
	if err := p.primary.Publish(topic, messages...); err != nil {
		return err
	}
	if err := p.secondary.Publish(topic, messages...); err != nil {
		p.log.Warn().Err(err).Str("topic", topic).Msg("relay publish failed")
	}
	return nil
}

// Close closes both publishers.
func (p *TeePublisher) Close() error {
	err := p.primary.Close()
	if serr := p.secondary.Close(); err == nil {
		err = serr
	}
	return err
}

var _ message.Publisher = (*TeePublisher)(nil)
