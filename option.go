package arcpay

import (
	"github.com/arcpay/arcpay/bridge"
	"github.com/arcpay/arcpay/channel"
	"github.com/arcpay/arcpay/ledger"
	"github.com/arcpay/arcpay/logger"
	"github.com/arcpay/arcpay/metrics"
)

type options struct {
	log         logger.Logger
	mtr         metrics.Recorder
	store       ledger.Store
	channelOpts []channel.Option
	bridgeOpts  []bridge.Option
}

// Option customizes a Pipeline.
type Option func(*options)

// WithLogger overrides the logger built from the config log level.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics overrides the metrics recorder chosen by the config.
func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) { o.mtr = r }
}

// WithLedger replaces the in-memory payment store.
func WithLedger(s ledger.Store) Option {
	return func(o *options) { o.store = s }
}

// WithChannelOption forwards an option to the channel client.
func WithChannelOption(opt channel.Option) Option {
	return func(o *options) { o.channelOpts = append(o.channelOpts, opt) }
}

// WithBridgeOption forwards an option to the bridge orchestrator.
func WithBridgeOption(opt bridge.Option) Option {
	return func(o *options) { o.bridgeOpts = append(o.bridgeOpts, opt) }
}
