// Package gochannel provides the in-process event channel used by the CLI and tests.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const outputBuffer = 256

// Option configures the channel.
type Option func(*gochannel.Config)

// WithBlockingPublish makes Publish return only after every subscriber acked the message,
// so a caller closing the channel right after publishing does not lose events.
func WithBlockingPublish() Option {
	return func(cfg *gochannel.Config) {
		cfg.BlockPublishUntilSubscriberAck = true
	}
}

// CreateChannel returns one GoChannel serving as both publisher and subscriber.
func CreateChannel(logger watermill.LoggerAdapter, opts ...Option) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	cfg := gochannel.Config{
		OutputChannelBuffer: outputBuffer,
		Persistent:          false,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	pubSub := gochannel.NewGoChannel(cfg, logger)

	return pubSub, pubSub, nil
}
