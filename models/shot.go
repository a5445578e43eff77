package models

import "math"

// ShotData mirrors one projectile. Owner names the player that fired it
// and is only used for lookups.
type ShotData struct {
	Owner    string `json:"owner"`
	Versor   Vec2   `json:"versor"`
	MinPoint Vec2   `json:"minpoint"`
	MaxPoint Vec2   `json:"maxpoint"`
	ID       int    `json:"id"`

	OnUpdated Listeners[*ShotData] `json:"-"`
}

// Angle is the heading of the segment from MinPoint to MaxPoint, in radians.
func (s *ShotData) Angle() float64 {
	return math.Atan2(s.MaxPoint.Y-s.MinPoint.Y, s.MaxPoint.X-s.MinPoint.X)
}

func (s *ShotData) Apply(in ShotData) {
	s.Owner = in.Owner
	s.Versor = in.Versor
	s.MinPoint = in.MinPoint
	s.MaxPoint = in.MaxPoint
	s.OnUpdated.Emit(s)
}

func (s *ShotData) Clone() ShotData {
	return ShotData{
		Owner:    s.Owner,
		Versor:   s.Versor,
		MinPoint: s.MinPoint,
		MaxPoint: s.MaxPoint,
		ID:       s.ID,
	}
}
