package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vlarkus/blitz/core"
	"github.com/vlarkus/blitz/model"
)

// FTCSwerveName is the registered name of the FTC 14423 Robocorns swerve
// trajectory map.
const FTCSwerveName = "FTC 14423 Robocorns Swerve"

// FTC14423Swerve writes a Java map from control point name to the curve
// leaving that point. Each entry holds the curve's points, listed from its
// end back to its start, and the heading of the point it arrives at. Bezier
// trajectories list the two helpers between the end points. Points without a
// heading export 0.
//
// The format is built from control points only; follow points are ignored.
type FTC14423Swerve struct{}

func (FTC14423Swerve) Name() string { return FTCSwerveName }

func (FTC14423Swerve) Write(w io.Writer, tr *model.Trajectory, _ []core.FollowPoint) error {
	if tr == nil {
		return fmt.Errorf("%s: %w", FTCSwerveName, model.ErrNullArgument)
	}
	bw := bufio.NewWriter(w)
	bw.WriteString("Map<String, double[][][]> trajectoryMap = new HashMap<>() {{\n")

	cps := tr.ControlPoints()
	for i := 0; i+1 < len(cps); i++ {
		cp, next := cps[i], cps[i+1]

		pts := []model.Cartesian{next.Position(), cp.Position()}
		if tr.Spline() == model.SplineBezier {
			pts = []model.Cartesian{next.Position(), next.AbsEndHelperPos(), cp.AbsStartHelperPos(), cp.Position()}
		}
		coords := make([]string, len(pts))
		for j, p := range pts {
			coords[j] = fmt.Sprintf("{ %.3f, %.3f }", p.X, p.Y)
		}
		heading, _ := next.Heading()

		fmt.Fprintf(bw, "    put(%q, new double[][][]{ { %s }, { { %.5f } } });\n",
			cp.Name(), strings.Join(coords, ", "), heading)
	}

	bw.WriteString("}};\n")
	return bw.Flush()
}
