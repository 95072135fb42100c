package storage

import "os"

// Mode selects the repository backend
type Mode string

const (
	ModeFile   Mode = "file"
	ModeSQLite Mode = "sqlite"
	ModeDynamo Mode = "dynamo"
	ModeNone   Mode = "none"
)

// DynamoMode represents the DynamoDB connection mode
type DynamoMode string

const (
	DynamoModeLocal DynamoMode = "local"
	DynamoModeAWS   DynamoMode = "aws"
)

// DynamoConfig holds DynamoDB configuration
type DynamoConfig struct {
	Mode           DynamoMode
	Endpoint       string // for local mode
	Region         string
	OperatorsTable string
}

// Config holds repository configuration. The store location is always
// explicit; nothing is discovered from the working directory.
type Config struct {
	Mode       Mode
	Path       string // file mode
	SQLitePath string
	Dynamo     DynamoConfig
}

// LoadConfig loads repository config from environment
func LoadConfig() Config {
	mode := Mode(getEnv("STORE_MODE", string(ModeFile)))

	dynamoMode := DynamoMode(getEnv("DYNAMO_MODE", string(DynamoModeAWS)))
	if dynamoMode != DynamoModeLocal {
		dynamoMode = DynamoModeAWS
	}

	return Config{
		Mode:       mode,
		Path:       getEnv("STORE_PATH", "data/feedback.json"),
		SQLitePath: getEnv("SQLITE_PATH", "data/feedback.db"),
		Dynamo: DynamoConfig{
			Mode:           dynamoMode,
			Endpoint:       getEnv("DYNAMO_ENDPOINT", "http://localhost:8000"),
			Region:         getEnv("DYNAMO_REGION", "eu-central-1"),
			OperatorsTable: getEnv("DYNAMO_OPERATORS_TABLE", "feedback-operator-records"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
