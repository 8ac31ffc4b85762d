package writer

import (
	"github.com/rxtech-lab/argo-macd/internal/types"
)

// BarWriter persists downloaded bars to a destination.
type BarWriter interface {
	// Initialize sets up the writer, creating tables or files.
	Initialize() error
	// Write persists a single bar.
	Write(bar types.Bar) error
	// Finalize commits pending writes and exports the output file.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
