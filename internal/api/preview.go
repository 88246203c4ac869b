package api

import (
	"hash/fnv"
	"log"
	"math"
	"net/http"

	"github.com/fogleman/gg"
)

// previewScale is how many pixels one world unit occupies in the preview.
const previewScale = 6.0

// playerPalette colors players by username hash so a player keeps their
// color across frames.
var playerPalette = [][3]float64{
	{0.96, 0.42, 0.42}, // red
	{0.31, 0.80, 0.77}, // teal
	{0.27, 0.72, 0.82}, // blue
	{0.59, 0.81, 0.71}, // green
	{1.00, 0.92, 0.65}, // yellow
	{0.99, 0.47, 0.66}, // pink
	{0.42, 0.36, 0.91}, // violet
	{0.99, 0.80, 0.43}, // orange
}

func paletteColor(username string) [3]float64 {
	h := fnv.New32a()
	h.Write([]byte(username))
	return playerPalette[h.Sum32()%uint32(len(playerPalette))]
}

// handlePreview renders the current arena state to a PNG. Handy for a quick
// look at the world without running a visualizer client.
func (h *routerHandlers) handlePreview(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.State()

	width := int(snap.Map.Width * previewScale)
	height := int(snap.Map.Height * previewScale)
	dc := gg.NewContext(width, height)

	// Background
	dc.SetRGB(0.10, 0.10, 0.14)
	dc.Clear()

	// Obstacles
	dc.SetRGB(0.35, 0.35, 0.40)
	for _, obs := range snap.Obstacles {
		dc.DrawRectangle(obs.X*previewScale, obs.Y*previewScale,
			obs.Width*previewScale, obs.Height*previewScale)
		dc.Fill()
	}

	// Bullets
	dc.SetRGB(1.0, 0.85, 0.30)
	for _, b := range snap.Bullets {
		dc.DrawCircle(b.X*previewScale, b.Y*previewScale, 2)
		dc.Fill()
	}

	// Players: colored disk, health ring, username label
	for _, p := range snap.Players {
		px := p.X * previewScale
		py := p.Y * previewScale

		c := paletteColor(p.Username)
		dc.SetRGB(c[0], c[1], c[2])
		dc.DrawCircle(px, py, 0.5*previewScale)
		dc.Fill()

		healthFrac := float64(p.Health) / 100.0
		dc.SetRGB(1-healthFrac, healthFrac, 0.2)
		dc.SetLineWidth(2)
		dc.DrawArc(px, py, 0.8*previewScale, 0, 2*math.Pi*healthFrac)
		dc.Stroke()

		dc.SetRGB(0.95, 0.95, 0.95)
		dc.DrawStringAnchored(p.Username, px, py-1.6*previewScale, 0.5, 0.5)
	}

	w.Header().Set("Content-Type", "image/png")
	if err := dc.EncodePNG(w); err != nil {
		log.Printf("⚠️ Preview encode failed: %v", err)
	}
}
