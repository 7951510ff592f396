package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ChannelConfig configures the off-chain channel client.
type ChannelConfig struct {
	// URL of the clearnode websocket endpoint.
	URL string `json:"url" validate:"required"`

	// AppName is the application identifier presented during
	// authentication and used as the EIP-712 domain name.
	AppName string `json:"appName" validate:"required"`

	// SessionTTL bounds the ephemeral session key lifetime. Defaults to
	// 24 hours.
	SessionTTL time.Duration `json:"sessionTtl,omitempty"`

	// RequestTimeout bounds each RPC round-trip. Defaults to 30 seconds.
	RequestTimeout time.Duration `json:"requestTimeout,omitempty"`
}

// BridgeConfig configures the burn-and-mint bridge orchestrator.
type BridgeConfig struct {
	// TokenAddress is the source-chain stablecoin contract.
	TokenAddress string `json:"tokenAddress" validate:"required,eth_addr"`

	// TokenMessenger is the bridge contract authorized to burn the token.
	TokenMessenger string `json:"tokenMessenger" validate:"required,eth_addr"`

	SourceDomain      uint32 `json:"sourceDomain"`
	DestinationDomain uint32 `json:"destinationDomain"`

	// MaxFee is the maximum relayer fee, in minor units, passed to the
	// burn call. Defaults to 500.
	MaxFee uint64 `json:"maxFee,omitempty"`

	// MinFinalityThreshold selects fast (soft-finality) transfers.
	// Defaults to 1000.
	MinFinalityThreshold uint32 `json:"minFinalityThreshold,omitempty"`

	ApproveGasLimit uint64 `json:"approveGasLimit,omitempty"`
	BurnGasLimit    uint64 `json:"burnGasLimit,omitempty"`

	// AttestationURL is the base URL of the attestation service.
	AttestationURL string `json:"attestationUrl" validate:"required,url"`

	// RelayerURL is the settlement endpoint that executes the mint.
	RelayerURL string `json:"relayerUrl" validate:"required,url"`
}

// Config is the top-level pipeline configuration.
type Config struct {
	Channel ChannelConfig `json:"channel"`
	Bridge  BridgeConfig  `json:"bridge"`

	LogLevel      string `json:"logLevel,omitempty"`
	EnableMetrics bool   `json:"enableMetrics,omitempty"`
}

// Validate checks the configuration using struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &Error{
			Code:    ErrConfig,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}
	return nil
}

// ParseConfig parses and validates a Config from JSON.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &Error{
			Code:    ErrConfig,
			Message: fmt.Sprintf("failed to parse config: %v", err),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateRequest checks a request struct using validator tags.
func ValidateRequest(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		return &Error{
			Code:    ErrInvalidRequest,
			Message: fmt.Sprintf("validation failed: %v", err),
		}
	}
	return nil
}
