package render

import (
	"image/color"

	"github.com/ayusman/cosmozoom/internal/detector"
	"github.com/ayusman/cosmozoom/internal/view"
)

// HandConnections are the skeleton edges: each finger chained from the wrist.
var HandConnections = [20][2]int{
	{detector.Wrist, detector.ThumbCMC}, {detector.ThumbCMC, detector.ThumbMCP}, {detector.ThumbMCP, detector.ThumbIP}, {detector.ThumbIP, detector.ThumbTip},
	{detector.Wrist, detector.IndexMCP}, {detector.IndexMCP, detector.IndexPIP}, {detector.IndexPIP, detector.IndexDIP}, {detector.IndexDIP, detector.IndexTip},
	{detector.Wrist, detector.MiddleMCP}, {detector.MiddleMCP, detector.MiddlePIP}, {detector.MiddlePIP, detector.MiddleDIP}, {detector.MiddleDIP, detector.MiddleTip},
	{detector.Wrist, detector.RingMCP}, {detector.RingMCP, detector.RingPIP}, {detector.RingPIP, detector.RingDIP}, {detector.RingDIP, detector.RingTip},
	{detector.Wrist, detector.PinkyMCP}, {detector.PinkyMCP, detector.PinkyPIP}, {detector.PinkyPIP, detector.PinkyDIP}, {detector.PinkyDIP, detector.PinkyTip},
}

// Skeleton styling.
const (
	PointRadius = 5
	BoneWidth   = 2
)

var (
	PointColor = color.RGBA{R: 255, A: 255}
	BoneColor  = color.RGBA{G: 255, A: 255}
)

// DrawHand draws the landmarks of one hand as points and then the skeleton
// edges over them, scaled to a width×height canvas.
func DrawHand(s Surface, hand detector.HandLandmarks, width, height float64) {
	for i := range hand.Points {
		x, y := hand.Pixel(i, width, height)
		s.DrawCircle(view.Pt(x, y), PointRadius, PointColor)
	}

	for _, edge := range HandConnections {
		x0, y0 := hand.Pixel(edge[0], width, height)
		x1, y1 := hand.Pixel(edge[1], width, height)
		s.DrawLine(view.Pt(x0, y0), view.Pt(x1, y1), BoneWidth, BoneColor)
	}
}
