// Package render abstracts the map surface the runtime draws on. The runtime
// itself never owns widgets; it emits marker and path layers keyed by stable
// IDs and the concrete Map decides how to display them.
package render

import (
	"context"
	"sync"

	"driverhub/internal/domain/geo"
	"driverhub/internal/general/logger"
)

// LayerID identifies one drawable layer. Setting a layer with an existing ID
// replaces it.
type LayerID string

// Well-known layers used by the runtime.
const (
	LayerDriver      LayerID = "driver"
	LayerPickup      LayerID = "pickup"
	LayerDrop        LayerID = "drop"
	LayerRoute       LayerID = "route"
	LayerGhostPrefix LayerID = "ghost:"
)

// Marker styles.
const (
	IconCar    = "car"
	IconPickup = "pickup"
	IconDrop   = "drop"
	IconGhost  = "ghost"
)

// Map is the drawing surface.
type Map interface {
	SetMarker(id LayerID, pos geo.LatLng, icon string)
	DrawPath(id LayerID, path []geo.LatLng, style string)
	RemoveLayer(id LayerID)
}

// GhostLayer derives the layer ID for one ghost marker.
func GhostLayer(ghostID string) LayerID {
	return LayerGhostPrefix + LayerID(ghostID)
}

// LogMap is a Map that records draw operations as structured log lines. It
// serves headless runs and tests; a real frontend supplies its own Map.
type LogMap struct {
	log *logger.Logger

	mu     sync.Mutex
	layers map[LayerID]string
}

// NewLogMap creates a logging map surface.
func NewLogMap(log *logger.Logger) *LogMap {
	return &LogMap{log: log, layers: make(map[LayerID]string)}
}

func (m *LogMap) SetMarker(id LayerID, pos geo.LatLng, icon string) {
	m.mu.Lock()
	m.layers[id] = icon
	m.mu.Unlock()
	m.log.Debug(context.Background(), "map_marker", "Marker placed",
		map[string]any{"layer": string(id), "icon": icon, "lat": pos.Lat, "lng": pos.Lng})
}

func (m *LogMap) DrawPath(id LayerID, path []geo.LatLng, style string) {
	m.mu.Lock()
	m.layers[id] = style
	m.mu.Unlock()
	m.log.Debug(context.Background(), "map_path", "Path drawn",
		map[string]any{"layer": string(id), "style": style, "points": len(path)})
}

func (m *LogMap) RemoveLayer(id LayerID) {
	m.mu.Lock()
	_, existed := m.layers[id]
	delete(m.layers, id)
	m.mu.Unlock()
	if existed {
		m.log.Debug(context.Background(), "map_remove", "Layer removed",
			map[string]any{"layer": string(id)})
	}
}

// Layers returns the IDs of the currently drawn layers.
func (m *LogMap) Layers() []LayerID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LayerID, 0, len(m.layers))
	for id := range m.layers {
		out = append(out, id)
	}
	return out
}

var _ Map = (*LogMap)(nil)
