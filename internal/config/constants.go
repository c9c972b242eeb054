package config

// Default paths for databases and uploads
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./opic-trainer.db"

	// DefaultUploadDir holds spreadsheets waiting for an async import
	DefaultUploadDir = "./uploads"
)

// Batch size bounds for the batch import mode.
const (
	MinImportBatchSize     = 50
	MaxImportBatchSize     = 100
	DefaultImportBatchSize = MinImportBatchSize
)
