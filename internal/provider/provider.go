package provider

import (
	"fmt"
	"time"

	"github.com/batchlens/batchlens/pkg/domain"
)

// Dataset source kinds accepted by Load and the configuration layer.
const (
	SourceDemo   = "demo"
	SourceFile   = "file"
	SourceSQLite = "sqlite"
)

// Load resolves a dataset source to a snapshot. kind selects the
// source; path is the corpus file or database for the file-backed
// kinds and ignored for demo. now anchors the demo corpus's start
// timestamps so date-window filters behave sensibly out of the box.
func Load(kind, path string, now time.Time) (domain.Dataset, error) {
	switch kind {
	case SourceDemo, "":
		return Demo(now), nil
	case SourceFile:
		return LoadFile(path)
	case SourceSQLite:
		return LoadSQLite(path)
	default:
		return domain.Dataset{}, fmt.Errorf("provider: unknown dataset source %q", kind)
	}
}
