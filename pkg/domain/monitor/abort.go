package monitor

import (
	"os"
	"path/filepath"
	"time"

	xerrors "github.com/scgcore/quantd/pkg/errors"
)

// AbortExperiment archives the experiment directory into the error area,
// renamed with a timestamp prefix so repeated attempts for the same group
// never collide. Returns the destination path.
//
// Abort is terminal: after this the experiment directory is gone from the
// experiment root and nothing polls for the group any more.
func AbortExperiment(exptDir, errorArea, groupID string, now time.Time) (string, error) {
	dest := filepath.Join(errorArea, now.Format("20060102_150405")+"_"+groupID)
	if err := os.Rename(exptDir, dest); err != nil {
		return "", xerrors.Wrap(err)
	}
	return dest, nil
}
