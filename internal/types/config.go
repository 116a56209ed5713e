package types

type RunMode string

const (
	// ModeLocal runs the API server with an in-memory event bus
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running just the API server
	ModeAPI RunMode = "api"
	// ModeAWSLambdaAPI is the mode for running the API server in AWS Lambda
	ModeAWSLambdaAPI RunMode = "aws_lambda_api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// PubSubBackend selects the transport used for domain events
type PubSubBackend string

const (
	PubSubMemory PubSubBackend = "memory"
	PubSubKafka  PubSubBackend = "kafka"
)
