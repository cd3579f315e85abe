package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Engine   EngineConfig   `mapstructure:"engine" validate:"required"`
	Provider ProviderConfig `mapstructure:"provider" validate:"required"`
	Events   EventsConfig   `mapstructure:"events"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// EngineConfig contains the command executor settings.
type EngineConfig struct {
	// WorkerCount determines how many non-blocking commands may run
	// concurrently
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// QueueSize bounds the number of commands waiting for dispatch
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`
}

// ProviderConfig contains all translation provider settings.
type ProviderConfig struct {
	APIKey string `mapstructure:"api_key" validate:"required"`
	Model  string `mapstructure:"model" validate:"required"`

	// MaxRetries bounds additional attempts after the first
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`

	// BackoffTime is the base retry backoff in seconds
	BackoffTime float64 `mapstructure:"backoff_time" validate:"gt=0"`

	// MaxInstructTokens caps the completion size for instruction-style
	// models
	MaxInstructTokens int `mapstructure:"max_instruct_tokens" validate:"gt=0"`

	// SupportsConversation selects the conversational request path
	SupportsConversation bool `mapstructure:"supports_conversation"`

	// SupportsSystemMessages controls whether system messages are sent
	// as-is
	SupportsSystemMessages bool `mapstructure:"supports_system_messages"`

	// Temperature is the sampling temperature passed to the provider
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// EventsConfig contains the optional broker settings for publishing command
// lifecycle events. An empty URL disables publishing.
type EventsConfig struct {
	AMQPURL  string `mapstructure:"amqp_url" validate:"omitempty,uri"`
	Exchange string `mapstructure:"exchange" validate:"required_with=AMQPURL"`
}
