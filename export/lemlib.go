package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vlarkus/blitz/core"
	"github.com/vlarkus/blitz/model"
)

// LemLibName is the registered name of the LemLib v0.4.0 path format.
const LemLibName = "LemLib v0.4.0"

// LemLib writes one "x, y, speed" line per follow point with four decimals.
// Every line except the last carries a trailing comma, and the document ends
// with "endData".
type LemLib struct{}

func (LemLib) Name() string { return LemLibName }

func (LemLib) Write(w io.Writer, _ *model.Trajectory, fps []core.FollowPoint) error {
	bw := bufio.NewWriter(w)
	for i, fp := range fps {
		fmt.Fprintf(bw, "%.4f, %.4f, %.4f", fp.Position.X, fp.Position.Y, fp.Speed)
		if i < len(fps)-1 {
			bw.WriteByte(',')
		}
		bw.WriteByte('\n')
	}
	bw.WriteString("endData\n")
	return bw.Flush()
}
