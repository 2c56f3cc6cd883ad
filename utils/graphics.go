package utils

import (
	"image/color"
	"math"
	"time"

	"github.com/notargets/avs/chart2d"
	utils2 "github.com/notargets/avs/utils"
)

type ColorName uint8

const (
	White ColorName = iota
	Blue
	Red
	Green
	Black
)

func GetColor(name ColorName) (c color.RGBA) {
	switch name {
	case White:
		c = color.RGBA{R: 255, G: 255, B: 255}
	case Blue:
		c = color.RGBA{R: 50, G: 0, B: 255}
	case Red:
		c = color.RGBA{R: 255, G: 0, B: 50}
	case Green:
		c = color.RGBA{R: 25, G: 255, B: 25}
	case Black:
		c = color.RGBA{}
	}
	return
}

func SleepFor(milliseconds int) {
	time.Sleep(time.Duration(milliseconds) * time.Millisecond)
}

// LineSet collects segments by color as x1,y1,x2,y2 runs for chart2d
type LineSet map[color.RGBA][]float32

func (ls LineSet) AddLine(x1, y1, x2, y2 float64, col color.RGBA) {
	ls[col] = append(ls[col],
		float32(x1), float32(y1),
		float32(x2), float32(y2),
	)
}

// Bounds returns the extent of every segment endpoint, padded by pad times the span
func (ls LineSet) Bounds(pad float32) (xMin, xMax, yMin, yMax float32) {
	xMin, xMax = float32(math.MaxFloat32), -float32(math.MaxFloat32)
	yMin, yMax = float32(math.MaxFloat32), -float32(math.MaxFloat32)
	for _, line := range ls {
		for i := 0; i+1 < len(line); i += 2 {
			xMin, xMax = min(xMin, line[i]), max(xMax, line[i])
			yMin, yMax = min(yMin, line[i+1]), max(yMax, line[i+1])
		}
	}
	dx, dy := pad*(xMax-xMin), pad*(yMax-yMin)
	return xMin - dx, xMax + dx, yMin - dy, yMax + dy
}

// PlotLines opens a chart window and blocks while it is displayed
func PlotLines(ls LineSet) {
	xMin, xMax, yMin, yMax := ls.Bounds(0.05)
	ch := chart2d.NewChart2D(xMin, xMax, yMin, yMax,
		1024, 1024, utils2.WHITE, utils2.BLACK)
	for col, line := range ls {
		ch.AddLine(line, col)
	}
	for {
		SleepFor(50)
	}
}
