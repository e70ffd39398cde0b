package report

import (
	"io"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
	"github.com/cleanroom-dev/cleanroom/pkg/executor"
)

// Write emits results in the given format to w.
func Write(w io.Writer, format Format, results []executor.Result) error {
	switch format {
	case Human:
		return WriteHuman(w, results)
	case JSON:
		return WriteJSON(w, results)
	case JUnit:
		return WriteJUnit(w, results)
	case Digest:
		return WriteDigest(w, results)
	default:
		return errlog.New(errlog.Config, "unknown report format %q", format)
	}
}
