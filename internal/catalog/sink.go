//go:generate mockgen -source=sink.go -destination=sink_mock.go -package=catalog
package catalog

import (
	"context"

	"github.com/oss-specs/specs/internal/parser"
)

// Sink receives parsed files during a sync. Save reports whether the file
// was seen for the first time.
type Sink interface {
	Save(ctx context.Context, pf *parser.ParsedFile) (bool, error)
}
