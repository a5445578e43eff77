package protocol

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/4cecoder/shipsync/models"
)

// ErrInvalidBlob marks an inbound payload rejected by its schema.
var ErrInvalidBlob = errors.New("invalid blob")

const schemaURL = "https://shipsync.local/shipsync.schema.json"

//go:embed schemas/shipsync.schema.json
var schemaSrc string

var (
	playerSchema   = mustCompile("player")
	shotSchema     = mustCompile("shot")
	namedSchema    = mustCompile("named")
	joinedSchema   = mustCompile("joined")
	leftSchema     = mustCompile("left")
	despawnSchema  = mustCompile("despawn")
	snapshotSchema = mustCompile("snapshot")
)

func mustCompile(def string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, strings.NewReader(schemaSrc)); err != nil {
		panic(fmt.Sprintf("protocol: add schema: %v", err))
	}
	s, err := c.Compile(schemaURL + "#/$defs/" + def)
	if err != nil {
		panic(fmt.Sprintf("protocol: compile %s schema: %v", def, err))
	}
	return s
}

func decodeValid[T any](s *jsonschema.Schema, raw json.RawMessage) (T, error) {
	var out T
	if len(raw) == 0 {
		return out, fmt.Errorf("%w: empty payload", ErrInvalidBlob)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	if err := s.Validate(doc); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
	}
	return out, nil
}

func DecodePlayer(raw json.RawMessage) (models.PlayerData, error) {
	return decodeValid[models.PlayerData](playerSchema, raw)
}

func DecodeShot(raw json.RawMessage) (models.ShotData, error) {
	return decodeValid[models.ShotData](shotSchema, raw)
}

func DecodeNamed(raw json.RawMessage) (NamedMsg, error) {
	return decodeValid[NamedMsg](namedSchema, raw)
}

func DecodeJoined(raw json.RawMessage) (JoinedMsg, error) {
	return decodeValid[JoinedMsg](joinedSchema, raw)
}

func DecodeLeft(raw json.RawMessage) (LeftMsg, error) {
	return decodeValid[LeftMsg](leftSchema, raw)
}

func DecodeDespawn(raw json.RawMessage) (ShotDespawnMsg, error) {
	return decodeValid[ShotDespawnMsg](despawnSchema, raw)
}

// DecodeSnapshot splits a players or shots snapshot into its per-entity
// blobs. The blobs themselves are validated when they are applied.
func DecodeSnapshot(raw json.RawMessage) (map[string]json.RawMessage, error) {
	return decodeValid[map[string]json.RawMessage](snapshotSchema, raw)
}

// DecodeError reads a server uerror payload. It is informational only, so
// anything that is not an object with a message is returned as raw text.
func DecodeError(raw json.RawMessage) ErrorMsg {
	var m ErrorMsg
	if err := json.Unmarshal(raw, &m); err != nil || m.Message == "" {
		return ErrorMsg{Message: string(raw)}
	}
	return m
}
