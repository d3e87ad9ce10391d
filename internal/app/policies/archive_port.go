package policies

import (
	"context"
	"io"
)

// ImportArchivePort stores the raw bulk-import file for traceability.
// Archival is best-effort: a failure never blocks parsing.
type ImportArchivePort interface {
	Archive(ctx context.Context, key string, reader io.Reader, contentType string) (url string, err error)
}
