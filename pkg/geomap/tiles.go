package geomap

import "github.com/vanderheijden86/readmit/pkg/model"

// Grid dimensions of the tile layout.
const (
	GridCols = 11
	GridRows = 8
)

// Pos is a tile's cell in the grid.
type Pos struct{ Row, Col int }

// tiles places the 50 states, DC and PR on a square-tile cartogram.
var tiles = map[model.Region]Pos{
	"ME": {0, 10},

	"WI": {1, 5}, "VT": {1, 9}, "NH": {1, 10},

	"WA": {2, 0}, "ID": {2, 1}, "MT": {2, 2}, "ND": {2, 3}, "MN": {2, 4},
	"IL": {2, 5}, "MI": {2, 6}, "NY": {2, 8}, "MA": {2, 9},

	"OR": {3, 0}, "NV": {3, 1}, "WY": {3, 2}, "SD": {3, 3}, "IA": {3, 4},
	"IN": {3, 5}, "OH": {3, 6}, "PA": {3, 7}, "NJ": {3, 8}, "CT": {3, 9},
	"RI": {3, 10},

	"CA": {4, 0}, "UT": {4, 1}, "CO": {4, 2}, "NE": {4, 3}, "MO": {4, 4},
	"KY": {4, 5}, "WV": {4, 6}, "VA": {4, 7}, "MD": {4, 8}, "DE": {4, 9},

	"AZ": {5, 1}, "NM": {5, 2}, "KS": {5, 3}, "AR": {5, 4}, "TN": {5, 5},
	"NC": {5, 6}, "SC": {5, 7}, "DC": {5, 8},

	"OK": {6, 3}, "LA": {6, 4}, "MS": {6, 5}, "AL": {6, 6}, "GA": {6, 7},

	"AK": {7, 0}, "HI": {7, 1}, "TX": {7, 3}, "FL": {7, 8}, "PR": {7, 10},
}

var byPos = func() map[Pos]model.Region {
	m := make(map[Pos]model.Region, len(tiles))
	for r, p := range tiles {
		m[p] = r
	}
	return m
}()

// TileOf returns the grid cell of region.
func TileOf(r model.Region) (Pos, bool) {
	p, ok := tiles[r]
	return p, ok
}

// RegionAtCell returns the region placed at a grid cell.
func RegionAtCell(p Pos) (model.Region, bool) {
	r, ok := byPos[p]
	return r, ok
}

// TileCount returns the number of placed regions.
func TileCount() int { return len(tiles) }
