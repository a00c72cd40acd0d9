// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/parlor/internal/chat"
)

type handlerEnv struct {
	registry   *chat.Registry
	dispatcher *Dispatcher
	ctx        context.Context
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	registry := chat.NewRegistry()
	return &handlerEnv{
		registry:   registry,
		dispatcher: NewDispatcher(registry),
		ctx:        context.Background(),
	}
}

func (e *handlerEnv) dispatch(t *testing.T, line string, s *chat.Session) {
	t.Helper()
	require.NoError(t, e.dispatcher.Dispatch(e.ctx, line, s))
}

func TestNick_RejectsSpaces(t *testing.T) {
	e := newHandlerEnv(t)
	s := chat.NewSession("127.0.0.1:2000")

	e.dispatch(t, "/nick al ice", s)

	assert.Equal(t, []string{"[ *SYS ]: Name should not contain spaces"}, drain(s))
	assert.Equal(t, chat.DefaultNick, s.Nick(), "nick must be unchanged after rejection")
}

func TestNick_SetsDisplayName(t *testing.T) {
	e := newHandlerEnv(t)
	s := chat.NewSession("127.0.0.1:2001")

	e.dispatch(t, "/nick bob", s)

	assert.Equal(t, "bob", s.Nick())
	assert.Equal(t, []string{"[ *SYS ]: Your nick set to bob"}, drain(s))
}

func TestJoin_CreatesRoomWithJoiner(t *testing.T) {
	e := newHandlerEnv(t)
	s := chat.NewSession("127.0.0.1:2002")

	e.dispatch(t, "/join lobby", s)

	assert.Equal(t, []string{"lobby"}, e.registry.RoomNames())
	assert.Equal(t, 1, e.registry.MemberCount("lobby"))
	room, ok := s.Room()
	require.True(t, ok)
	assert.Equal(t, "lobby", room)
	assert.Equal(t, []string{"[ *SYS ]: You have successfully joined room lobby."}, drain(s))
}

func TestJoin_RejectsSpaces(t *testing.T) {
	e := newHandlerEnv(t)
	s := chat.NewSession("127.0.0.1:2003")

	e.dispatch(t, "/join big room", s)

	assert.Equal(t, []string{"[ *SYS ]: Room name should not contain spaces"}, drain(s))
	assert.Empty(t, e.registry.RoomNames())
	_, ok := s.Room()
	assert.False(t, ok)
}

func TestJoin_NotifiesExistingMembers(t *testing.T) {
	e := newHandlerEnv(t)
	a := chat.NewSession("127.0.0.1:2004")
	b := chat.NewSession("127.0.0.1:2005")
	e.dispatch(t, "/join lobby", a)
	drain(a)

	e.dispatch(t, "/nick bob", b)
	drain(b)
	e.dispatch(t, "/join lobby", b)

	assert.Equal(t, []string{"[ *ROOM lobby]: bob has joined the room!"}, drain(a))
	assert.Equal(t, []string{"[ *SYS ]: You have successfully joined room lobby."}, drain(b))
	assert.Equal(t, 2, e.registry.MemberCount("lobby"))
}

func TestJoin_SwitchingRoomsLeavesTheOld(t *testing.T) {
	e := newHandlerEnv(t)
	a := chat.NewSession("127.0.0.1:2006")
	b := chat.NewSession("127.0.0.1:2007")
	e.dispatch(t, "/join red", a)
	e.dispatch(t, "/join red", b)
	drain(a)
	drain(b)

	e.dispatch(t, "/join blue", a)

	assert.Equal(t, []string{"[ *ROOM red]: anon has left."}, drain(b))
	assert.Equal(t, []string{
		"[ *SYS ]: You have left the room red.",
		"[ *SYS ]: You have successfully joined room blue.",
	}, drain(a))
	assert.Equal(t, 1, e.registry.MemberCount("red"))
	assert.Equal(t, 1, e.registry.MemberCount("blue"))
}

// Rejoining the current room deliberately replays the leave and join
// sequence; the room survives even when the rejoiner is its only member.
func TestJoin_RejoinSameRoomReplaysNotices(t *testing.T) {
	e := newHandlerEnv(t)
	s := chat.NewSession("127.0.0.1:2008")
	e.dispatch(t, "/join solo", s)
	drain(s)

	e.dispatch(t, "/join solo", s)

	assert.Equal(t, []string{
		"[ *SYS ]: You have left the room solo.",
		"[ *SYS ]: You have successfully joined room solo.",
	}, drain(s))
	assert.Equal(t, []string{"solo"}, e.registry.RoomNames())
	assert.Equal(t, 1, e.registry.MemberCount("solo"))
}

func TestMsg_RequiresRoom(t *testing.T) {
	e := newHandlerEnv(t)
	s := chat.NewSession("127.0.0.1:2009")

	e.dispatch(t, "/msg anyone there", s)

	assert.Equal(t, []string{"[ *SYS ]: Join a room first!"}, drain(s))
}

func TestMsg_BroadcastsToRoomExceptSender(t *testing.T) {
	e := newHandlerEnv(t)
	a := chat.NewSession("127.0.0.1:2010")
	b := chat.NewSession("127.0.0.1:2011")
	c := chat.NewSession("127.0.0.1:2012")
	e.dispatch(t, "/nick bob", a)
	e.dispatch(t, "/join lobby", a)
	e.dispatch(t, "/join lobby", b)
	e.dispatch(t, "/join elsewhere", c)
	drain(a)
	drain(b)
	drain(c)

	e.dispatch(t, "/msg hi there", a)

	assert.Equal(t, []string{"< bob >: hi there"}, drain(b))
	assert.Empty(t, drain(a), "sender must not receive their own broadcast")
	assert.Empty(t, drain(c), "other rooms must not receive the broadcast")
}

func TestRooms_ListsSortedNames(t *testing.T) {
	e := newHandlerEnv(t)
	a := chat.NewSession("127.0.0.1:2013")
	b := chat.NewSession("127.0.0.1:2014")
	e.dispatch(t, "/join zebra", a)
	e.dispatch(t, "/join alpha", b)
	drain(a)
	drain(b)

	e.dispatch(t, "/rooms", a)

	assert.Equal(t, []string{"Rooms list:\nalpha\nzebra"}, drain(a))
	assert.Empty(t, drain(b), "rooms reply goes to the sender only")
}

func TestRooms_EmptyRegistry(t *testing.T) {
	e := newHandlerEnv(t)
	s := chat.NewSession("127.0.0.1:2015")

	e.dispatch(t, "/rooms", s)

	assert.Equal(t, []string{"Rooms list:\n"}, drain(s))
}

func TestQuit_LeavesRoomThenCloses(t *testing.T) {
	e := newHandlerEnv(t)
	a := chat.NewSession("127.0.0.1:2016")
	b := chat.NewSession("127.0.0.1:2017")
	e.dispatch(t, "/join lobby", a)
	e.dispatch(t, "/join lobby", b)
	drain(a)
	drain(b)

	e.dispatch(t, "/quit", b)

	assert.Equal(t, []string{
		"[ *SYS ]: You have left the room lobby.",
		"[ *SYS ]: Connection closed.",
	}, drain(b))
	assert.Equal(t, []string{"[ *ROOM lobby]: anon has left."}, drain(a))

	select {
	case <-b.Done():
	default:
		t.Fatal("session not closed after quit")
	}

	assert.Equal(t, 1, e.registry.MemberCount("lobby"))
}

func TestQuit_LastMemberDeletesRoom(t *testing.T) {
	e := newHandlerEnv(t)
	s := chat.NewSession("127.0.0.1:2018")
	e.dispatch(t, "/join lobby", s)
	drain(s)

	e.dispatch(t, "/quit", s)

	assert.Empty(t, e.registry.RoomNames())
}

func TestQuit_WithoutRoom(t *testing.T) {
	e := newHandlerEnv(t)
	s := chat.NewSession("127.0.0.1:2019")

	e.dispatch(t, "/quit", s)

	assert.Equal(t, []string{"[ *SYS ]: Connection closed."}, drain(s))
	select {
	case <-s.Done():
	default:
		t.Fatal("session not closed after quit")
	}
}
