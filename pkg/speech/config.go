package speech

import (
	"fmt"
	"strings"
	"sync"
)

// Property keys for the configuration store. Key names follow the service's
// property naming so stored values round-trip to the wire unchanged.
const (
	PropertyRecoLanguage = "SpeechServiceConnection_RecoLanguage"
	PropertyEndpointID   = "SpeechServiceConnection_EndpointId"
	PropertyEndpoint     = "SpeechServiceConnection_Endpoint"
	PropertyRegion       = "SpeechServiceConnection_Region"
	PropertyKey          = "SpeechServiceConnection_Key"
	PropertyAuthToken    = "SpeechServiceAuthorization_Token"
	PropertyOutputFormat = "SpeechServiceResponse_OutputFormat"
)

// OutputFormat selects between simple and detailed phrase results.
type OutputFormat int

const (
	OutputFormatSimple OutputFormat = iota
	OutputFormatDetailed
)

func (f OutputFormat) String() string {
	if f == OutputFormatDetailed {
		return "detailed"
	}
	return "simple"
}

// Config is the property store backing a recognizer. It is a plain value
// container: access is last-write-wins and carries no validation beyond the
// constructors' language precondition.
type Config struct {
	mu    sync.RWMutex
	props map[string]string
}

// NewConfig creates a configuration with the given recognition language.
// The language is required and read-only after construction.
func NewConfig(language string) (*Config, error) {
	if strings.TrimSpace(language) == "" {
		return nil, fmt.Errorf("%w: recognition language must not be blank", ErrInvalidArgument)
	}
	return &Config{props: map[string]string{
		PropertyRecoLanguage: language,
		PropertyOutputFormat: OutputFormatSimple.String(),
	}}, nil
}

// NewConfigFromSubscription creates a configuration carrying a subscription
// key and service region.
func NewConfigFromSubscription(key, region, language string) (*Config, error) {
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: subscription key must not be blank", ErrInvalidArgument)
	}
	if strings.TrimSpace(region) == "" {
		return nil, fmt.Errorf("%w: region must not be blank", ErrInvalidArgument)
	}
	cfg, err := NewConfig(language)
	if err != nil {
		return nil, err
	}
	cfg.SetProperty(PropertyKey, key)
	cfg.SetProperty(PropertyRegion, region)
	return cfg, nil
}

// NewConfigFromEndpoint creates a configuration targeting a custom service
// endpoint. The key may be blank when an authorization token is set later.
func NewConfigFromEndpoint(endpoint, key, language string) (*Config, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("%w: endpoint must not be blank", ErrInvalidArgument)
	}
	cfg, err := NewConfig(language)
	if err != nil {
		return nil, err
	}
	cfg.SetProperty(PropertyEndpoint, endpoint)
	if key != "" {
		cfg.SetProperty(PropertyKey, key)
	}
	return cfg, nil
}

// GetProperty returns the stored value for key, or "" when unset.
func (c *Config) GetProperty(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.props[key]
}

// SetProperty stores value under key, overwriting any previous value.
func (c *Config) SetProperty(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.props[key] = value
}

// Language returns the recognition language set at construction.
func (c *Config) Language() string {
	return c.GetProperty(PropertyRecoLanguage)
}

// OutputFormat returns the stored output format, defaulting to simple for
// unset or unrecognized values.
func (c *Config) OutputFormat() OutputFormat {
	if c.GetProperty(PropertyOutputFormat) == OutputFormatDetailed.String() {
		return OutputFormatDetailed
	}
	return OutputFormatSimple
}
