package handlers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
)

// ReadConsole turns text lines into session input. "+key" presses and
// "-key" releases the control bound to key; "name <x>" asks for a name.
func ReadConsole(ctx context.Context, r io.Reader, keys map[string]Control, sess *Session) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, err := parseConsoleLine(line, keys)
		if err != nil {
			log.Printf("console: %v", err)
			continue
		}
		if err := sess.Do(ctx, cmd); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseConsoleLine(line string, keys map[string]Control) (func(*Session), error) {
	if name, ok := strings.CutPrefix(line, "name "); ok {
		name = strings.TrimSpace(name)
		return func(s *Session) {
			if err := s.SetName(name); err != nil {
				log.Printf("console: %v", err)
			}
		}, nil
	}

	press := line[0] == '+'
	if !press && line[0] != '-' {
		return nil, fmt.Errorf("unknown command %q", line)
	}
	key := strings.ToLower(line[1:])
	c, ok := keys[key]
	if !ok {
		return nil, fmt.Errorf("key %q is not bound", key)
	}
	if press {
		return func(s *Session) { s.Press(c) }, nil
	}
	return func(s *Session) { s.Release(c) }, nil
}
