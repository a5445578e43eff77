// Package handlers session.go routes server events into the local mirror.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/4cecoder/shipsync/models"
	"github.com/4cecoder/shipsync/protocol"
)

var ErrAlreadyConnected = errors.New("already connected")

type State int

const (
	StateDisconnected State = iota
	StateAwaitingAssignment
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateAwaitingAssignment:
		return "awaiting-assignment"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Event is one inbound message, or a transport lifecycle change surfaced
// under the open/error/close names.
type Event struct {
	Name string
	Data json.RawMessage
	Err  error
}

type Emitter interface {
	Emit(event string, payload any) error
}

type Recorder interface {
	Record(event string, data json.RawMessage) error
}

type HandlerFunc func(ev Event)

// binding ties a presentation handle to the listener subscriptions that
// feed it, so both go away together.
type binding struct {
	handle  Handle
	release []func()
}

func (b *binding) teardown(p Presenter) {
	for _, unsubscribe := range b.release {
		unsubscribe()
	}
	b.release = nil
	p.Destroy(b.handle)
}

type playerRegistry = Registry[string, *models.PlayerData, *binding]
type shotRegistry = Registry[int, *models.ShotData, *binding]

// Session owns everything the client knows about the match. All methods
// except Do must be called from the goroutine running Run.
type Session struct {
	emitter   Emitter
	presenter Presenter
	recorder  Recorder

	state   State
	name    string
	me      *models.PlayerData
	tracker *InputTracker

	players  *playerRegistry
	shots    *shotRegistry
	handlers map[string]HandlerFunc
	calls    chan func()
}

func NewSession(emitter Emitter, presenter Presenter) *Session {
	s := &Session{
		emitter:   emitter,
		presenter: presenter,
		players:   NewRegistry[string, *models.PlayerData, *binding](func(p *models.PlayerData) string { return p.Name }),
		shots:     NewRegistry[int, *models.ShotData, *binding](func(sh *models.ShotData) int { return sh.ID }),
		calls:     make(chan func()),
	}
	s.handlers = map[string]HandlerFunc{
		protocol.EventOpen:        s.onOpen,
		protocol.EventError:       s.onError,
		protocol.EventClose:       s.onClose,
		protocol.EventUError:      s.onUError,
		protocol.EventNamed:       s.onNamed,
		protocol.EventJoined:      s.onJoined,
		protocol.EventLeft:        s.onLeft,
		protocol.EventPlayers:     s.onPlayers,
		protocol.EventShotsFired:  s.onShotsFired,
		protocol.EventShotDespawn: s.onShotDespawn,
		protocol.EventShots:       s.onShots,
		protocol.EventDead:        s.onLifecycleNotice,
		protocol.EventRespawned:   s.onLifecycleNotice,
	}
	return s
}

func (s *Session) SetRecorder(r Recorder) {
	s.recorder = r
}

func (s *Session) State() State {
	return s.state
}

// Me returns the local player, or nil before the server has assigned one.
func (s *Session) Me() *models.PlayerData {
	return s.me
}

// StateView is a detached copy of the session for readers outside the
// session goroutine.
type StateView struct {
	State   string              `json:"state"`
	Me      string              `json:"me,omitempty"`
	Players []models.PlayerData `json:"players"`
	Shots   []ShotView          `json:"shots"`
}

type ShotView struct {
	models.ShotData
	Angle float64 `json:"angle"`
}

func (s *Session) Snapshot() StateView {
	v := StateView{
		State:   s.state.String(),
		Players: make([]models.PlayerData, 0, s.players.Len()),
		Shots:   make([]ShotView, 0, s.shots.Len()),
	}
	if s.me != nil {
		v.Me = s.me.Name
	}
	s.players.ForEach(func(p *models.PlayerData, _ *binding) {
		v.Players = append(v.Players, p.Clone())
	})
	s.shots.ForEach(func(sh *models.ShotData, _ *binding) {
		v.Shots = append(v.Shots, ShotView{ShotData: sh.Clone(), Angle: sh.Angle()})
	})
	return v
}

// Run processes events and submitted calls one at a time until ctx is
// done or events is closed.
func (s *Session) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.Handle(ev)
		case fn := <-s.calls:
			fn()
		}
	}
}

// Do runs fn on the session goroutine and waits for it to finish.
func (s *Session) Do(ctx context.Context, fn func(*Session)) error {
	done := make(chan struct{})
	call := func() {
		defer close(done)
		fn(s)
	}
	select {
	case s.calls <- call:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Handle(ev Event) {
	if s.recorder != nil {
		if err := s.recorder.Record(ev.Name, ev.Data); err != nil {
			log.Printf("record %s: %v", ev.Name, err)
		}
	}
	h, ok := s.handlers[ev.Name]
	if !ok {
		log.Printf("Unhandled event %q", ev.Name)
		return
	}
	h(ev)
}

// UseName stores the name to request as soon as the socket opens.
func (s *Session) UseName(name string) {
	s.name = name
}

// SetName asks the server to assign name to this client.
func (s *Session) SetName(name string) error {
	if s.state == StateConnected {
		return fmt.Errorf("set name %q: %w as %s", name, ErrAlreadyConnected, s.me.Name)
	}
	if err := s.emitter.Emit(protocol.EventSetName, protocol.SetNameMsg{Name: name}); err != nil {
		return fmt.Errorf("send setname: %w", err)
	}
	s.name = name
	s.state = StateAwaitingAssignment
	return nil
}

func (s *Session) Press(c Control) {
	if s.state != StateConnected || s.tracker == nil {
		return
	}
	s.tracker.Press(c)
}

func (s *Session) Release(c Control) {
	if s.state != StateConnected || s.tracker == nil {
		return
	}
	s.tracker.Release(c)
}

func (s *Session) sendInputs(in models.PlayerInputs) {
	if err := s.emitter.Emit(protocol.EventInputs, protocol.InputsMsg(in)); err != nil {
		log.Printf("send inputs: %v", err)
	}
}

// Shutdown destroys every presentation handle and empties the registries.
func (s *Session) Shutdown() {
	s.players.Clear(func(_ *models.PlayerData, b *binding) { b.teardown(s.presenter) })
	s.shots.Clear(func(_ *models.ShotData, b *binding) { b.teardown(s.presenter) })
	s.me = nil
	s.tracker = nil
	s.state = StateDisconnected
}

func (s *Session) onOpen(Event) {
	log.Printf("[socket] open")
	if s.state == StateDisconnected && s.name != "" {
		if err := s.SetName(s.name); err != nil {
			log.Printf("open: %v", err)
		}
	}
}

func (s *Session) onError(ev Event) {
	log.Printf("[socket] error: %v", ev.Err)
}

func (s *Session) onClose(ev Event) {
	log.Printf("[socket] close: %v", ev.Err)
	s.state = StateDisconnected
	s.tracker = nil
}

func (s *Session) onUError(ev Event) {
	log.Printf("server error: %s", protocol.DecodeError(ev.Data).Message)
}

func (s *Session) onLifecycleNotice(ev Event) {
	log.Printf("%s: %s", ev.Name, ev.Data)
}

func (s *Session) onNamed(ev Event) {
	if s.state == StateConnected {
		log.Printf("named: already connected as %s, ignoring", s.me.Name)
		return
	}
	msg, err := protocol.DecodeNamed(ev.Data)
	if err != nil {
		log.Printf("named: %v", err)
		return
	}
	if !msg.Accepted() {
		log.Printf("named: server rejected name %q", s.name)
		rejected := s.name
		s.name = ""
		s.state = StateDisconnected
		s.presenter.NameRejected(rejected)
		return
	}

	me := &msg.Player
	if err := s.addPlayer(me, true); err != nil {
		if !errors.Is(err, ErrDuplicateIdentity) {
			log.Printf("named: %v", err)
			return
		}
		existing, _ := s.players.Find(me.Name)
		existing.Apply(msg.Player.Clone())
		me = existing
	}
	s.me = me
	s.name = me.Name
	s.tracker = NewInputTracker(&me.Inputs, s.sendInputs)
	s.state = StateConnected
	log.Printf("connected as %s", me.Name)
}

func (s *Session) onJoined(ev Event) {
	msg, err := protocol.DecodeJoined(ev.Data)
	if err != nil {
		log.Printf("joined: %v", err)
		return
	}
	if err := s.addPlayer(&msg.Player, false); err != nil {
		log.Printf("joined: ignoring %v", err)
	}
}

func (s *Session) onLeft(ev Event) {
	msg, err := protocol.DecodeLeft(ev.Data)
	if err != nil {
		log.Printf("left: %v", err)
		return
	}
	name := msg.Player.Name
	log.Printf("Player left %s", name)
	b, err := s.players.Remove(name)
	if err != nil {
		log.Printf("left: %v", err)
		return
	}
	b.teardown(s.presenter)
	if s.me != nil && s.me.Name == name {
		s.me = nil
		s.tracker = nil
		s.state = StateDisconnected
	}
}

func (s *Session) onPlayers(ev Event) {
	snap, err := protocol.DecodeSnapshot(ev.Data)
	if err != nil {
		log.Printf("players: %v", err)
		return
	}
	_, err = Reconcile(s.players, snap, identityKey, func(p *models.PlayerData, raw json.RawMessage) error {
		in, err := protocol.DecodePlayer(raw)
		if err != nil {
			return err
		}
		if in.Name != p.Name {
			return fmt.Errorf("%w: entry names %q", ErrIdentityMismatch, in.Name)
		}
		p.Apply(in)
		return nil
	})
	if err != nil {
		log.Printf("players: %v", err)
	}
}

func (s *Session) onShotsFired(ev Event) {
	shot, err := protocol.DecodeShot(ev.Data)
	if err != nil {
		log.Printf("shotsfired: %v", err)
		return
	}
	if err := s.addShot(&shot); err != nil {
		log.Printf("shotsfired: ignoring %v", err)
	}
}

func (s *Session) onShotDespawn(ev Event) {
	msg, err := protocol.DecodeDespawn(ev.Data)
	if err != nil {
		log.Printf("shotdespawn: %v", err)
		return
	}
	id, err := msg.ParseID()
	if err != nil {
		log.Printf("shotdespawn: %v", err)
		return
	}
	b, err := s.shots.Remove(id)
	if err != nil {
		log.Printf("shotdespawn: %v", err)
		return
	}
	b.teardown(s.presenter)
}

func (s *Session) onShots(ev Event) {
	snap, err := protocol.DecodeSnapshot(ev.Data)
	if err != nil {
		log.Printf("shots: %v", err)
		return
	}
	_, err = Reconcile(s.shots, snap, strconv.Itoa, func(sh *models.ShotData, raw json.RawMessage) error {
		in, err := protocol.DecodeShot(raw)
		if err != nil {
			return err
		}
		if in.ID != sh.ID {
			return fmt.Errorf("%w: entry has id %d", ErrIdentityMismatch, in.ID)
		}
		sh.Apply(in)
		return nil
	})
	if err != nil {
		log.Printf("shots: %v", err)
	}
}

func (s *Session) addPlayer(p *models.PlayerData, isLocal bool) error {
	if _, exists := s.players.Find(p.Name); exists {
		return fmt.Errorf("player %w: %s", ErrDuplicateIdentity, p.Name)
	}
	b := &binding{handle: s.presenter.PlayerCreated(p, isLocal)}
	b.release = []func(){
		p.OnDied.Subscribe(func(p *models.PlayerData) { s.presenter.PlayerDied(b.handle, p) }),
		p.OnRespawned.Subscribe(func(p *models.PlayerData) { s.presenter.PlayerRespawned(b.handle, p) }),
		p.OnUpdated.Subscribe(func(p *models.PlayerData) { s.presenter.PlayerUpdated(b.handle, p) }),
	}
	return s.players.Add(p, b)
}

func (s *Session) addShot(sh *models.ShotData) error {
	if _, exists := s.shots.Find(sh.ID); exists {
		return fmt.Errorf("shot %w: %d", ErrDuplicateIdentity, sh.ID)
	}
	b := &binding{handle: s.presenter.ShotCreated(sh)}
	b.release = []func(){
		sh.OnUpdated.Subscribe(func(sh *models.ShotData) { s.presenter.ShotMoved(b.handle, sh) }),
	}
	return s.shots.Add(sh, b)
}

func identityKey(name string) string {
	return name
}
