package protocol

import (
	"fmt"
	"strconv"

	"github.com/4cecoder/shipsync/models"
)

// Inbound events.
const (
	EventNamed       = "named"
	EventJoined      = "joined"
	EventLeft        = "left"
	EventPlayers     = "players"
	EventShotsFired  = "shotsfired"
	EventShotDespawn = "shotdespawn"
	EventShots       = "shots"
	EventDead        = "dead"
	EventRespawned   = "respawned"
	EventUError      = "uerror"
)

// Outbound events.
const (
	EventInputs  = "uinput"
	EventSetName = "setname"
)

// Transport lifecycle, surfaced by the client as ordinary events.
const (
	EventOpen  = "open"
	EventError = "error"
	EventClose = "close"
)

type NamedMsg struct {
	OK     int               `json:"ok"`
	Player models.PlayerData `json:"player"`
}

func (m NamedMsg) Accepted() bool {
	return m.OK == 1
}

type JoinedMsg struct {
	Player models.PlayerData `json:"player"`
}

type LeftMsg struct {
	Player struct {
		Name string `json:"name"`
	} `json:"player"`
}

type ShotDespawnMsg struct {
	ID string `json:"id"`
}

func (m ShotDespawnMsg) ParseID() (int, error) {
	id, err := strconv.Atoi(m.ID)
	if err != nil {
		return 0, fmt.Errorf("shot id %q: %w", m.ID, err)
	}
	return id, nil
}

type SetNameMsg struct {
	Name string `json:"name"`
}

type InputsMsg = models.PlayerInputs

type ErrorMsg struct {
	Message string `json:"message"`
}
