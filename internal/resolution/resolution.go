// Package resolution maps map zoom levels to H3 resolutions and back.
package resolution

import "sort"

// DefaultResolution is used for zoom levels outside the table.
const DefaultResolution = 1

var zoomToRes = map[int]int{
	5:  1,
	6:  2,
	7:  3,
	8:  3,
	9:  6,
	10: 6,
	11: 6,
	12: 6,
	13: 7,
	14: 8,
	15: 8,
	16: 8,
	17: 8,
	18: 8,
	19: 8,
	20: 8,
	21: 8,
	22: 8,
	23: 8,
	24: 8,
}

// resToZoom is the inverse of zoomToRes. Several zooms share a resolution;
// entries are inserted in ascending zoom order and the last one wins, so
// 3 maps to 8, 6 to 12 and 8 to 24.
var resToZoom = invert(zoomToRes)

// sorted resolutions present in resToZoom
var tabled = keys(resToZoom)

func invert(m map[int]int) map[int]int {
	zooms := keys(m)
	out := make(map[int]int, len(m))
	for _, z := range zooms {
		out[m[z]] = z
	}
	return out
}

func keys(m map[int]int) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func ForZoom(zoom int) int {
	if r, ok := zoomToRes[zoom]; ok {
		return r
	}
	return DefaultResolution
}

// ZoomFor returns the representative zoom for res. ok is false for
// resolutions the table never produces.
func ZoomFor(res int) (zoom int, ok bool) {
	zoom, ok = resToZoom[res]
	return zoom, ok
}

// NearestZoomFor is ZoomFor, falling back to the zoom of the closest tabled
// resolution. Ties go to the coarser resolution.
func NearestZoomFor(res int) int {
	if z, ok := resToZoom[res]; ok {
		return z
	}
	best := tabled[0]
	for _, r := range tabled[1:] {
		if abs(r-res) < abs(best-res) {
			best = r
		}
	}
	return resToZoom[best]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
