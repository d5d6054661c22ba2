package telemetry

const defaultVersion = "1.0.0"

// NewConfigForService creates a telemetry config for one saga process
func NewConfigForService(serviceName, environment, otlpEndpoint string) Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: defaultVersion,
		Environment:    environment,
		OTLPEndpoint:   otlpEndpoint,
	}
}

// WithVersion sets the service version for a config
func (c Config) WithVersion(version string) Config {
	c.ServiceVersion = version
	return c
}

// WithLogLevel sets the minimum log level (debug, info, warn, error)
func (c Config) WithLogLevel(level string) Config {
	c.LogLevel = level
	return c
}
