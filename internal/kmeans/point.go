package kmeans

import (
	"encoding/json"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Point is a 2D coordinate. It encodes to JSON as [x, y].
type Point [2]float64

// X returns the first coordinate.
func (p Point) X() float64 { return p[0] }

// Y returns the second coordinate.
func (p Point) Y() float64 { return p[1] }

// IsFinite reports whether neither coordinate is NaN or infinite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p[0]) && !math.IsInf(p[0], 0) &&
		!math.IsNaN(p[1]) && !math.IsInf(p[1], 0)
}

// Cluster is the set of points assigned to one centroid.
//
// Points keeps dataset order. Members holds the dataset indices of the same
// points and is not serialized.
type Cluster struct {
	Points  []Point
	Members *roaring.Bitmap
}

// Len returns the number of points in the cluster.
func (c Cluster) Len() int { return len(c.Points) }

// MarshalJSON encodes the cluster as its point list.
func (c Cluster) MarshalJSON() ([]byte, error) {
	if c.Points == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Points)
}

// UnmarshalJSON decodes a point list. Members is left empty.
func (c *Cluster) UnmarshalJSON(data []byte) error {
	var pts []Point
	if err := json.Unmarshal(data, &pts); err != nil {
		return err
	}
	c.Points = pts
	c.Members = roaring.New()
	return nil
}

func newClusters(k int) []Cluster {
	clusters := make([]Cluster, k)
	for i := range clusters {
		clusters[i] = Cluster{Points: []Point{}, Members: roaring.New()}
	}
	return clusters
}

// Clone returns a deep copy of the centroid set.
func Clone(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

// Reassigned counts the points whose cluster differs between two assignments
// over the same dataset. It returns 0 when the assignments are not comparable.
func Reassigned(prev, next []Cluster) int {
	if len(prev) == 0 || len(prev) != len(next) {
		return 0
	}
	moved := uint64(0)
	for i := range next {
		if next[i].Members == nil || prev[i].Members == nil {
			return 0
		}
		moved += roaring.AndNot(next[i].Members, prev[i].Members).GetCardinality()
	}
	return int(moved)
}
