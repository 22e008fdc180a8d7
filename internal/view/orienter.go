package view

import (
	"errors"
	"fmt"
	"log/slog"

	"runway_view/internal/models"
)

// ErrDuplicateIcon is returned when two markers would share one icon handle
var ErrDuplicateIcon = errors.New("duplicate marker icon")

// NoIndex keys icons of the single-runway view, which has no configuration index
const NoIndex = -1

// IconKey identifies the icon of one runway within one configuration
type IconKey struct {
	Index  int
	Runway string
}

// Orienter rotates runway marker icons to their true bearing
type Orienter struct {
	icons map[IconKey]*Icon
}

// NewOrienter creates an orienter with no icons
func NewOrienter() *Orienter {
	return &Orienter{icons: make(map[IconKey]*Icon)}
}

// Register records the icon for key; a key can only be registered once
func (o *Orienter) Register(key IconKey, icon *Icon) error {
	if _, ok := o.icons[key]; ok {
		return fmt.Errorf("%w for runway %s at index %d", ErrDuplicateIcon, key.Runway, key.Index)
	}
	o.icons[key] = icon
	return nil
}

// Orient rotates the icons of configuration index. Icons already rotated are left alone.
func (o *Orienter) Orient(index int, runways []models.Runway) {
	for _, r := range runways {
		icon, ok := o.icons[IconKey{Index: index, Runway: r.Name}]
		if !ok {
			slog.Debug("No marker icon for runway", "index", index, "runway", r.Name)
			continue
		}
		icon.TransformOrigin = TransformOrigin
		if icon.Rotated {
			continue
		}
		icon.Rotation = r.TrueBearing
		icon.Rotated = true
	}
}

// OrientAll sets the rotation of every single-view icon unconditionally
func (o *Orienter) OrientAll(runways []models.Runway) {
	for _, r := range runways {
		icon, ok := o.icons[IconKey{Index: NoIndex, Runway: r.Name}]
		if !ok {
			slog.Debug("No marker icon for runway", "runway", r.Name)
			continue
		}
		icon.TransformOrigin = TransformOrigin
		icon.Rotation = r.TrueBearing
		icon.Rotated = true
	}
}
