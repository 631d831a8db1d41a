package config

// Constants defining default values for application configuration
const (
	DefaultDBPath      = "./feedcore.db"
	DefaultSourcesPath = "./sources.csv"

	DefaultServerPort = 8080
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultImportWorkers = 0 // 0 means use runtime.NumCPU()

	DefaultLogLevel = "info"
)
