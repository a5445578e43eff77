// Package models player.go
package models

type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PlayerInputs struct {
	Accel int `json:"accel"`
	Rot   int `json:"rot"`
	Gun   int `json:"gun"`
}

type Velocity struct {
	Lin Vec2    `json:"lin"`
	Ang float64 `json:"ang"`
}

// PlayerData mirrors one remote ship. Name is the identity key and never
// changes once the player is registered.
type PlayerData struct {
	Name     string       `json:"name"`
	SocketID string       `json:"socketid"`
	Inputs   PlayerInputs `json:"inputs"`
	Pos      Vec2         `json:"pos"`
	Rot      float64      `json:"rot"`
	Vel      Velocity     `json:"vel"`
	IsDead   int          `json:"isdead"`
	GunCount int          `json:"guncount"`

	OnUpdated   Listeners[*PlayerData] `json:"-"`
	OnDied      Listeners[*PlayerData] `json:"-"`
	OnRespawned Listeners[*PlayerData] `json:"-"`
}

func (p *PlayerData) Alive() bool {
	return p.IsDead == 0
}

// Apply copies the incoming snapshot onto p. Name is left alone. A change
// of the dead flag is reported through OnDied or OnRespawned before
// OnUpdated fires.
func (p *PlayerData) Apply(in PlayerData) {
	p.SocketID = in.SocketID
	p.Inputs = in.Inputs
	p.Pos = in.Pos
	p.Rot = in.Rot
	p.Vel = in.Vel

	died := p.IsDead == 0 && in.IsDead != 0
	respawned := p.IsDead != 0 && in.IsDead == 0
	p.IsDead = in.IsDead
	p.GunCount = in.GunCount

	if died {
		p.OnDied.Emit(p)
	} else if respawned {
		p.OnRespawned.Emit(p)
	}
	p.OnUpdated.Emit(p)
}

// Clone returns a copy of the entity fields without any listeners attached.
func (p *PlayerData) Clone() PlayerData {
	return PlayerData{
		Name:     p.Name,
		SocketID: p.SocketID,
		Inputs:   p.Inputs,
		Pos:      p.Pos,
		Rot:      p.Rot,
		Vel:      p.Vel,
		IsDead:   p.IsDead,
		GunCount: p.GunCount,
	}
}
