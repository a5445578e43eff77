package handlers

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/4cecoder/shipsync/models"
)

// Handle is whatever the presentation layer uses to represent an entity.
// The session only stores it and passes it back.
type Handle any

type Presenter interface {
	PlayerCreated(p *models.PlayerData, isLocal bool) Handle
	PlayerUpdated(h Handle, p *models.PlayerData)
	PlayerDied(h Handle, p *models.PlayerData)
	PlayerRespawned(h Handle, p *models.PlayerData)
	ShotCreated(s *models.ShotData) Handle
	ShotMoved(h Handle, s *models.ShotData)
	Destroy(h Handle)
	NameRejected(name string)
}

const ExplosionDuration = time.Second

// Ship is the LogPresenter's view of a player.
type Ship struct {
	Name      string
	Local     bool
	Color     string
	X, Y      float64
	Rot       float64
	Visible   bool
	Exploding bool
	Destroyed bool

	explosion *time.Timer
}

type ShotSprite struct {
	ID        int
	X, Y      float64
	Angle     float64
	Destroyed bool
}

// LogPresenter is a headless presenter that keeps a little scene state and
// logs every change. Explosion timers fire on their own goroutine, so the
// scene is guarded by a mutex.
type LogPresenter struct {
	mu                sync.Mutex
	logger            *log.Logger
	explosionDuration time.Duration
}

func NewLogPresenter(logger *log.Logger) *LogPresenter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogPresenter{logger: logger, explosionDuration: ExplosionDuration}
}

func (lp *LogPresenter) SetExplosionDuration(d time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.explosionDuration = d
}

func (lp *LogPresenter) PlayerCreated(p *models.PlayerData, isLocal bool) Handle {
	ship := &Ship{
		Name:    p.Name,
		Local:   isLocal,
		Color:   randomColor(),
		X:       p.Pos.X,
		Y:       p.Pos.Y,
		Rot:     p.Rot,
		Visible: p.Alive(),
	}
	lp.logger.Printf("ship %s created at (%.1f, %.1f) local=%t color=%s", p.Name, p.Pos.X, p.Pos.Y, isLocal, ship.Color)
	return ship
}

func (lp *LogPresenter) PlayerUpdated(h Handle, p *models.PlayerData) {
	ship, ok := h.(*Ship)
	if !ok || !p.Alive() {
		return
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()
	ship.X, ship.Y, ship.Rot = p.Pos.X, p.Pos.Y, p.Rot
}

func (lp *LogPresenter) PlayerDied(h Handle, p *models.PlayerData) {
	ship, ok := h.(*Ship)
	if !ok {
		return
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()
	ship.Visible = false
	ship.Exploding = true
	if ship.explosion != nil {
		ship.explosion.Stop()
	}
	ship.explosion = time.AfterFunc(lp.explosionDuration, func() {
		lp.mu.Lock()
		defer lp.mu.Unlock()
		ship.Exploding = false
	})
	lp.logger.Printf("ship %s exploded at (%.1f, %.1f)", p.Name, ship.X, ship.Y)
}

func (lp *LogPresenter) PlayerRespawned(h Handle, p *models.PlayerData) {
	ship, ok := h.(*Ship)
	if !ok {
		return
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()
	ship.Visible = true
	lp.logger.Printf("ship %s respawned", p.Name)
}

func (lp *LogPresenter) ShotCreated(s *models.ShotData) Handle {
	lp.logger.Printf("shot %d fired by %s", s.ID, s.Owner)
	return &ShotSprite{ID: s.ID, X: s.MaxPoint.X, Y: s.MaxPoint.Y, Angle: s.Angle()}
}

func (lp *LogPresenter) ShotMoved(h Handle, s *models.ShotData) {
	sprite, ok := h.(*ShotSprite)
	if !ok {
		return
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()
	sprite.X, sprite.Y, sprite.Angle = s.MaxPoint.X, s.MaxPoint.Y, s.Angle()
}

func (lp *LogPresenter) Destroy(h Handle) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	switch v := h.(type) {
	case *Ship:
		if v.explosion != nil {
			v.explosion.Stop()
		}
		v.Destroyed = true
		lp.logger.Printf("ship %s removed", v.Name)
	case *ShotSprite:
		v.Destroyed = true
	default:
		lp.logger.Printf("destroy: unexpected handle %T", h)
	}
}

func (lp *LogPresenter) NameRejected(name string) {
	lp.logger.Printf("name %q was rejected, pick another one", name)
}

// Exploding reports whether the ship is still showing its explosion.
func (lp *LogPresenter) Exploding(ship *Ship) bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return ship.Exploding
}

func randomColor() string {
	return fmt.Sprintf("#%06x", rand.Intn(0xFFFFFF))
}
