// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

package command

import (
	"strings"

	"github.com/parlorchat/parlor/internal/chat"
)

// Parse converts a raw input line into a Command, or an error whose
// RejectionText is sent back to the issuing session. Exactly one of the
// two results is non-zero.
//
// Parsing is purely syntactic: multi-word bodies for nick and join pass
// through here and are rejected by the handler. Keeping that split lets
// msg bodies carry spaces verbatim while name validation stays a
// semantic concern.
func Parse(line string, sender *chat.Session) (*Command, error) {
	if !strings.HasPrefix(line, string(Prefix)) {
		return nil, ErrNotCommand()
	}

	tokens := strings.Split(line[1:], " ")
	if tokens[0] == "" {
		return nil, ErrUnknownCommand()
	}

	if len(tokens) == 1 {
		switch tokens[0] {
		case KindQuit.String():
			return &Command{Kind: KindQuit, Sender: sender}, nil
		case KindRooms.String():
			return &Command{Kind: KindRooms, Sender: sender}, nil
		default:
			return nil, ErrMissingParams(tokens[0])
		}
	}

	var kind Kind
	switch tokens[0] {
	case KindNick.String():
		kind = KindNick
	case KindJoin.String():
		kind = KindJoin
	case KindMsg.String():
		kind = KindMsg
	default:
		return nil, ErrUnknownCommand()
	}

	return &Command{
		Kind:   kind,
		Body:   strings.Join(tokens[1:], " "),
		Sender: sender,
	}, nil
}
