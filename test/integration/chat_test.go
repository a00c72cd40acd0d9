// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parlor Contributors

//go:build integration

package integration

import (
	"bufio"
	"context"
	"net"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/parlorchat/parlor/internal/chat"
	"github.com/parlorchat/parlor/internal/command"
	"github.com/parlorchat/parlor/internal/telnet"
	"github.com/parlorchat/parlor/internal/ws"
)

// relay holds a running server pair sharing one registry.
type relay struct {
	cancel     context.CancelFunc
	telnetAddr string
	wsAddr     string
}

func startRelay() *relay {
	ctx, cancel := context.WithCancel(context.Background())

	registry := chat.NewRegistry()
	dispatcher := command.NewDispatcher(registry)

	telnetServer := telnet.NewServer("127.0.0.1:0", dispatcher, nil)
	wsServer := ws.NewServer("127.0.0.1:0", dispatcher, nil)

	go func() {
		defer GinkgoRecover()
		Expect(telnetServer.Run(ctx)).To(Succeed())
	}()
	go func() {
		defer GinkgoRecover()
		Expect(wsServer.Run(ctx)).To(Succeed())
	}()

	Eventually(telnetServer.Addr, "2s", "10ms").ShouldNot(BeEmpty())
	Eventually(wsServer.Addr, "2s", "10ms").ShouldNot(BeEmpty())

	return &relay{
		cancel:     cancel,
		telnetAddr: telnetServer.Addr(),
		wsAddr:     wsServer.Addr(),
	}
}

// lineClient is a telnet client whose inbound lines are pumped into a
// channel so assertions can wait on them.
type lineClient struct {
	conn  net.Conn
	lines chan string
}

func dialTelnet(addr string) *lineClient {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	Expect(err).NotTo(HaveOccurred())

	c := &lineClient{conn: conn, lines: make(chan string, 32)}
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			c.lines <- scanner.Text()
		}
	}()

	Eventually(c.lines, "2s").Should(Receive(HavePrefix("[ *SYS ]: Welcome")))
	return c
}

func (c *lineClient) send(line string) {
	_, err := c.conn.Write([]byte(line + "\n"))
	Expect(err).NotTo(HaveOccurred())
}

func (c *lineClient) close() {
	_ = c.conn.Close()
}

var _ = Describe("Chat relay", func() {
	var r *relay

	BeforeEach(func() {
		r = startRelay()
	})

	AfterEach(func() {
		r.cancel()
	})

	It("relays messages between room members and tears rooms down", func() {
		a := dialTelnet(r.telnetAddr)
		defer a.close()
		b := dialTelnet(r.telnetAddr)
		defer b.close()

		By("A joining lobby")
		a.send("/join lobby")
		Eventually(a.lines, "2s").Should(Receive(Equal("[ *SYS ]: You have successfully joined room lobby.")))

		By("B joining lobby under a nick")
		b.send("/nick bob")
		Eventually(b.lines, "2s").Should(Receive(Equal("[ *SYS ]: Your nick set to bob")))
		b.send("/join lobby")
		Eventually(b.lines, "2s").Should(Receive(Equal("[ *SYS ]: You have successfully joined room lobby.")))
		Eventually(a.lines, "2s").Should(Receive(Equal("[ *ROOM lobby]: bob has joined the room!")))

		By("A messaging the room")
		a.send("/msg hi")
		Eventually(b.lines, "2s").Should(Receive(Equal("< anon >: hi")))
		Consistently(a.lines, "200ms").ShouldNot(Receive(), "sender must not hear their own message")

		By("B quitting leaves the room intact for A")
		b.send("/quit")
		Eventually(b.lines, "2s").Should(Receive(Equal("[ *SYS ]: You have left the room lobby.")))
		Eventually(b.lines, "2s").Should(Receive(Equal("[ *SYS ]: Connection closed.")))
		Eventually(a.lines, "2s").Should(Receive(Equal("[ *ROOM lobby]: bob has left.")))

		a.send("/rooms")
		Eventually(a.lines, "2s").Should(Receive(Equal("Rooms list:")))
		Eventually(a.lines, "2s").Should(Receive(Equal("lobby")))

		By("A leaving deletes the room")
		a.send("/join corridor")
		Eventually(a.lines, "2s").Should(Receive(Equal("[ *SYS ]: You have left the room lobby.")))
		Eventually(a.lines, "2s").Should(Receive(Equal("[ *SYS ]: You have successfully joined room corridor.")))

		a.send("/rooms")
		Eventually(a.lines, "2s").Should(Receive(Equal("Rooms list:")))
		Eventually(a.lines, "2s").Should(Receive(Equal("corridor")))
	})

	It("cleans up after an abrupt disconnect", func() {
		a := dialTelnet(r.telnetAddr)
		defer a.close()
		b := dialTelnet(r.telnetAddr)

		a.send("/join lobby")
		Eventually(a.lines, "2s").Should(Receive(Equal("[ *SYS ]: You have successfully joined room lobby.")))
		b.send("/join lobby")
		Eventually(b.lines, "2s").Should(Receive(Equal("[ *SYS ]: You have successfully joined room lobby.")))
		Eventually(a.lines, "2s").Should(Receive(Equal("[ *ROOM lobby]: anon has joined the room!")))

		By("B dropping the connection without /quit")
		b.close()
		Eventually(a.lines, "2s").Should(Receive(Equal("[ *ROOM lobby]: anon has left.")))
	})

	It("serves websocket clients against the same registry", func() {
		tc := dialTelnet(r.telnetAddr)
		defer tc.close()

		wsConn, resp, err := websocket.DefaultDialer.Dial("ws://"+r.wsAddr+"/ws", nil)
		Expect(err).NotTo(HaveOccurred())
		if resp != nil {
			_ = resp.Body.Close()
		}
		defer wsConn.Close()

		wsLines := make(chan string, 32)
		go func() {
			defer close(wsLines)
			for {
				_, data, err := wsConn.ReadMessage()
				if err != nil {
					return
				}
				wsLines <- string(data)
			}
		}()
		Eventually(wsLines, "2s").Should(Receive(HavePrefix("[ *SYS ]: Welcome")))

		tc.send("/join lobby")
		Eventually(tc.lines, "2s").Should(Receive(Equal("[ *SYS ]: You have successfully joined room lobby.")))

		Expect(wsConn.WriteMessage(websocket.TextMessage, []byte("/nick webby"))).To(Succeed())
		Eventually(wsLines, "2s").Should(Receive(Equal("[ *SYS ]: Your nick set to webby")))
		Expect(wsConn.WriteMessage(websocket.TextMessage, []byte("/join lobby"))).To(Succeed())
		Eventually(wsLines, "2s").Should(Receive(Equal("[ *SYS ]: You have successfully joined room lobby.")))
		Eventually(tc.lines, "2s").Should(Receive(Equal("[ *ROOM lobby]: webby has joined the room!")))

		Expect(wsConn.WriteMessage(websocket.TextMessage, []byte("/msg hello from the web"))).To(Succeed())
		Eventually(tc.lines, "2s").Should(Receive(Equal("< webby >: hello from the web")))
	})
})
