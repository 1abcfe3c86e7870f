package maze

import (
	"errors"
	"fmt"
	"math"

	"tiltmaze/internal/common"
)

// ErrInvalidGeometry is returned when the viewport or maze dimensions cannot
// produce a layout.
var ErrInvalidGeometry = errors.New("invalid maze geometry")

// Layout is the static wall set for one viewport size. It is built once and
// never modified afterwards.
type Layout struct {
	width  float64
	height float64
	walls  []common.Rect
}

// New generates a layout for the given viewport.
func New(width, height, wallThickness, cellWidth float64) (*Layout, error) {
	walls, err := Generate(width, height, wallThickness, cellWidth)
	if err != nil {
		return nil, err
	}
	return &Layout{width: width, height: height, walls: walls}, nil
}

// Generate builds the wall rectangles for a viewport: four border walls (top,
// left, right, bottom) followed by the interior zig-zag pattern.
//
// The viewport width is split into cellWidth wide columns. Stepping over the
// columns two at a time, a wall hangs from the top edge down to
// height-cellWidth at the odd column boundary, and a wall rises from the
// bottom edge up to cellWidth at the even boundary. When the column count is
// odd the last top-hanging wall has no bottom partner.
func Generate(width, height, wallThickness, cellWidth float64) ([]common.Rect, error) {
	for _, dim := range []struct {
		name  string
		value float64
	}{
		{"width", width},
		{"height", height},
		{"wall thickness", wallThickness},
		{"cell width", cellWidth},
	} {
		if !(dim.value > 0) || math.IsInf(dim.value, 0) {
			return nil, fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidGeometry, dim.name, dim.value)
		}
	}

	columns := int(math.Floor(width / cellWidth))
	walls := make([]common.Rect, 0, 4+columns)

	walls = append(walls,
		common.NewRect(0, 0, width, wallThickness),
		common.NewRect(0, 0, wallThickness, height),
		common.NewRect(width-wallThickness, 0, width, height),
		common.NewRect(0, height-wallThickness, width, height),
	)

	for i := 0; i < columns; i += 2 {
		x := cellWidth * float64(i+1)
		walls = append(walls, common.NewRect(x, 0, x+wallThickness, height-cellWidth))
		if i+1 < columns {
			x = cellWidth * float64(i)
			walls = append(walls, common.NewRect(x, cellWidth, x+wallThickness, height))
		}
	}

	return walls, nil
}

// Walls returns a copy of the wall set in insertion order.
func (l *Layout) Walls() []common.Rect {
	walls := make([]common.Rect, len(l.walls))
	copy(walls, l.walls)
	return walls
}

// NumWalls returns the number of walls in the layout.
func (l *Layout) NumWalls() int {
	return len(l.walls)
}

// Bounds returns the viewport rectangle the layout was generated for.
func (l *Layout) Bounds() common.Rect {
	return common.NewRect(0, 0, l.width, l.height)
}
