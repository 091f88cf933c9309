package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vlarkus/blitz/core"
	"github.com/vlarkus/blitz/model"
)

// JerryIOName is the registered name of the path.jerryio point format.
const JerryIOName = "path.jerryio v0.1"

// JerryIOFooter closes every path.jerryio document.
const JerryIOFooter = "#Made with BLITZ (blitz.vlarkus.com)"

// JerryIO writes path.jerryio point blocks. Positions are taken in Source
// units (metres when zero) and written in inches with three decimals; speeds
// are written unchanged. Several trajectories share one document and one
// footer.
type JerryIO struct {
	Source Unit
}

func (JerryIO) Name() string { return JerryIOName }

func (j JerryIO) Write(w io.Writer, tr *model.Trajectory, fps []core.FollowPoint) error {
	return j.WriteAll(w, []Item{{Trajectory: tr, Points: fps}})
}

func (j JerryIO) WriteAll(w io.Writer, items []Item) error {
	src := j.Source
	if src == 0 {
		src = Meters
	}
	bw := bufio.NewWriter(w)
	for _, it := range items {
		name := ""
		if it.Trajectory != nil {
			name = it.Trajectory.Name()
		}
		fmt.Fprintf(bw, "#PATH-POINTS-START %s\n", JerryIOPathName(name))
		for _, fp := range it.Points {
			fmt.Fprintf(bw, "%.3f, %.3f, %.3f\n",
				Convert(fp.Position.X, src, Inches),
				Convert(fp.Position.Y, src, Inches),
				fp.Speed)
		}
		bw.WriteString("endData\n")
	}
	bw.WriteString(JerryIOFooter + "\n")
	return bw.Flush()
}

// JerryIOPathName strips all whitespace from a trajectory name.
func JerryIOPathName(name string) string {
	return strings.Join(strings.Fields(name), "")
}
