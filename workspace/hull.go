package workspace

import (
	"github.com/golang/geo/r3"
)

// hullEpsilon separates genuinely degenerate geometry from floating point
// noise when building the hull.
const hullEpsilon = 1e-10

type hullFace struct {
	a, b, c int
}

// HullVolume returns the volume of the convex hull of the point cloud via an
// incremental hull construction. Degenerate inputs (fewer than four points,
// or a coplanar cloud) yield zero; this is never an error.
func HullVolume(points []r3.Vector) float64 {
	faces, ok := convexHull(points)
	if !ok {
		return 0
	}
	centroid := r3.Vector{}
	for _, p := range points {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(points)))

	volume := 0.0
	for _, f := range faces {
		va := points[f.a].Sub(centroid)
		vb := points[f.b].Sub(centroid)
		vc := points[f.c].Sub(centroid)
		volume += va.Dot(vb.Cross(vc)) / 6
	}
	if volume < 0 {
		volume = -volume
	}
	return volume
}

// convexHull builds the hull face list with outward-wound triangles. Returns
// false when no non-degenerate initial tetrahedron exists.
func convexHull(points []r3.Vector) ([]hullFace, bool) {
	if len(points) < 4 {
		return nil, false
	}
	i0, i1, i2, i3, ok := initialTetrahedron(points)
	if !ok {
		return nil, false
	}

	interior := points[i0].Add(points[i1]).Add(points[i2]).Add(points[i3]).Mul(0.25)
	faces := []hullFace{
		orientOutward(points, interior, hullFace{i0, i1, i2}),
		orientOutward(points, interior, hullFace{i0, i1, i3}),
		orientOutward(points, interior, hullFace{i0, i2, i3}),
		orientOutward(points, interior, hullFace{i1, i2, i3}),
	}

	for idx, p := range points {
		if idx == i0 || idx == i1 || idx == i2 || idx == i3 {
			continue
		}
		faces = addPoint(points, faces, idx, p)
	}
	return faces, true
}

// addPoint removes the faces visible from p and stitches new faces from the
// horizon edges to p. Winding order is preserved, so outward orientation is
// maintained without re-checking against an interior point.
func addPoint(points []r3.Vector, faces []hullFace, idx int, p r3.Vector) []hullFace {
	visible := make([]bool, len(faces))
	anyVisible := false
	for i, f := range faces {
		if faceNormal(points, f).Dot(p.Sub(points[f.a])) > hullEpsilon {
			visible[i] = true
			anyVisible = true
		}
	}
	if !anyVisible {
		return faces
	}

	// Directed edges of visible faces; a horizon edge is one whose reverse
	// does not belong to another visible face. Edges are walked in face
	// order, not map order, so the stitched face list is deterministic.
	type edge struct{ from, to int }
	edgeSet := make(map[edge]bool)
	var edges []edge
	for i, f := range faces {
		if !visible[i] {
			continue
		}
		for _, e := range []edge{{f.a, f.b}, {f.b, f.c}, {f.c, f.a}} {
			edgeSet[e] = true
			edges = append(edges, e)
		}
	}

	kept := faces[:0]
	for i, f := range faces {
		if !visible[i] {
			kept = append(kept, f)
		}
	}
	for _, e := range edges {
		if edgeSet[edge{e.to, e.from}] {
			continue
		}
		kept = append(kept, hullFace{e.from, e.to, idx})
	}
	return kept
}

func faceNormal(points []r3.Vector, f hullFace) r3.Vector {
	return points[f.b].Sub(points[f.a]).Cross(points[f.c].Sub(points[f.a]))
}

func orientOutward(points []r3.Vector, interior r3.Vector, f hullFace) hullFace {
	if faceNormal(points, f).Dot(points[f.a].Sub(interior)) < 0 {
		return hullFace{f.a, f.c, f.b}
	}
	return f
}

// initialTetrahedron picks four points spanning a non-degenerate volume: an
// x-extreme, the point farthest from it, the point farthest from their line,
// and the point farthest from their plane.
func initialTetrahedron(points []r3.Vector) (int, int, int, int, bool) {
	i0 := 0
	for i, p := range points {
		if p.X < points[i0].X {
			i0 = i
		}
	}
	i1 := 0
	for i, p := range points {
		if p.Sub(points[i0]).Norm() > points[i1].Sub(points[i0]).Norm() {
			i1 = i
		}
	}
	if points[i1].Sub(points[i0]).Norm() < hullEpsilon {
		return 0, 0, 0, 0, false
	}

	line := points[i1].Sub(points[i0])
	i2, best := -1, hullEpsilon
	for i, p := range points {
		d := line.Cross(p.Sub(points[i0])).Norm()
		if d > best {
			i2, best = i, d
		}
	}
	if i2 < 0 {
		return 0, 0, 0, 0, false
	}

	normal := line.Cross(points[i2].Sub(points[i0]))
	i3, best := -1, hullEpsilon
	for i, p := range points {
		d := normal.Dot(p.Sub(points[i0]))
		if d < 0 {
			d = -d
		}
		if d > best {
			i3, best = i, d
		}
	}
	if i3 < 0 {
		return 0, 0, 0, 0, false
	}
	return i0, i1, i2, i3, true
}
