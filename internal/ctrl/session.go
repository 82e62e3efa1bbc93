package ctrl

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/hybridsdn/controller/internal/model"
	"github.com/hybridsdn/controller/ofp"
)

// handshakeTimeout bounds how long a newly-accepted connection has to
// complete HELLO/FEATURES before the controller gives up on it.
const handshakeTimeout = 5 * time.Second

// handshakeAndServe runs the OpenFlow handshake synchronously on its own
// goroutine (one per accepted connection, per acceptLoop). Once FEATURES_
// REPLY arrives the switch is registered and a dedicated reader goroutine
// takes over; this goroutine then returns.
func (c *Controller) handshakeAndServe(conn net.Conn) {
	defer c.wg.Done()

	if err := writeRaw(conn, ofp.Encode(ofp.NextXID(), ofp.Hello{})); err != nil {
		conn.Close()
		return
	}

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	if err := readHello(conn); err != nil {
		log.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("handshake: no hello")
		conn.Close()
		return
	}

	if err := writeRaw(conn, ofp.Encode(ofp.NextXID(), ofp.FeaturesRequest{})); err != nil {
		conn.Close()
		return
	}

	fr, err := readFeaturesReply(conn)
	if err != nil {
		log.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("handshake: no features reply")
		conn.Close()
		return
	}

	conn.SetReadDeadline(time.Time{})

	// miss_send_len = 0xffff so PACKET_IN always carries the full payload.
	if err := writeRaw(conn, ofp.Encode(ofp.NextXID(), ofp.SetConfig{MissSendLen: 0xffff})); err != nil {
		conn.Close()
		return
	}

	ss := c.registerSwitch(conn, fr)

	c.wg.Add(1)
	go c.readLoop(ss)
}

// registerSwitch installs the newly-handshaken switch under the facade
// lock. A reconnecting DPID evicts its stale session first, so a switch
// that drops and comes back gets a fresh swid rather than two live entries.
func (c *Controller) registerSwitch(conn net.Conn, fr ofp.FeaturesReply) *switchState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if oldSwID, ok := c.dpidToSwID[fr.DatapathID]; ok {
		if old, ok := c.switches[oldSwID]; ok {
			c.closeSwitchLocked(oldSwID, old)
		}
	}

	swid := c.nextSwID
	c.nextSwID++

	ports := make(map[uint16]*model.Port, len(fr.Ports))
	for _, p := range fr.Ports {
		ports[p.PortNo] = &model.Port{
			Number: p.PortNo,
			Up:     p.State&ofp.PortStateLinkDown == 0,
		}
	}

	ss := &switchState{
		swid:        swid,
		dpid:        fr.DatapathID,
		conn:        conn,
		closedCh:    make(chan struct{}),
		ports:       ports,
		macTable:    make(map[[6]byte]uint16),
		connectedAt: time.Now(),
	}

	c.switches[swid] = ss
	c.dpidToSwID[fr.DatapathID] = swid

	log.Info().Uint32("swid", swid).Uint64("dpid", fr.DatapathID).Int("ports", len(ports)).Msg("switch connected")
	c.hooks.OnSwitchUp(swid)

	return ss
}

// readLoop owns the read side of one connection for its whole life. It
// forwards every decoded message to the dispatch loop and exits, posting a
// disconnect event, the moment the socket errors.
func (c *Controller) readLoop(ss *switchState) {
	defer c.wg.Done()

	r := bufio.NewReader(ss.conn)
	for {
		h, body, err := readMessage(r)
		if err != nil {
			c.postEvent(ss.swid, disconnect{}, err)
			return
		}

		msg, err := ofp.Decode(h, body)
		if err != nil {
			log.Warn().Err(err).Uint32("swid", ss.swid).Msg("decode error, dropping session")
			c.postEvent(ss.swid, disconnect{}, err)
			return
		}
		if msg == nil {
			continue // unhandled message type: ignore, don't error
		}

		c.postEvent(ss.swid, msg, nil)
	}
}

func (c *Controller) postEvent(swid uint32, msg interface{}, err error) {
	select {
	case c.events <- sessionEvent{swid: swid, msg: msg, err: err}:
	case <-c.stopCh:
	}
}

// dispatchLoop is the single goroutine that handles registered sessions'
// messages and fires the packet-in, LLDP and switch-down hooks. Switch
// registration and OnSwitchUp happen on the handshake goroutine instead
// (registerSwitch), under c.mu. It never blocks on a switch write
// for long: primitives writing to a socket do so under that switch's own
// writeMu, not this loop's.
func (c *Controller) dispatchLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.stopCh:
			return
		case ev := <-c.events:
			c.handleEvent(ev)
		}
	}
}

func (c *Controller) handleEvent(ev sessionEvent) {
	c.mu.Lock()
	ss, ok := c.switches[ev.swid]
	c.mu.Unlock()
	if !ok {
		return
	}

	switch msg := ev.msg.(type) {
	case disconnect:
		c.mu.Lock()
		c.closeSwitchLocked(ev.swid, ss)
		c.mu.Unlock()
		c.hooks.OnSwitchDown(ev.swid)

	case ofp.EchoRequest:
		if err := c.writeTo(ss, ofp.EchoReply{Data: msg.Data}); err != nil {
			log.Warn().Err(err).Uint32("swid", ev.swid).Msg("echo reply write failed")
		}

	case ofp.PacketIn:
		c.handlePacketIn(ss, msg)

	case ofp.StatsReplyPort:
		c.deliverStatsReply(ss, msg)

	case ofp.BarrierReply:
		c.deliverBarrierReply(ss)
	}
}

// handlePacketIn is where the facade decides between its two PACKET_IN
// consumers: an LLDP ethertype is a topology signal and never reaches the
// L2 learner; everything else does.
func (c *Controller) handlePacketIn(ss *switchState, pi ofp.PacketIn) {
	if len(pi.Data) < 14 {
		return
	}

	ethertype := binary.BigEndian.Uint16(pi.Data[12:14])
	if ethertype == ethertypeLLDP {
		srcDPID, srcPort, ok := parseLLDP(pi.Data)
		if !ok {
			return
		}
		c.mu.Lock()
		srcSwID, known := c.dpidToSwID[srcDPID]
		c.mu.Unlock()
		if !known {
			return // neighbor hasn't completed its own handshake yet
		}
		c.hooks.OnLLDPObserved(srcSwID, srcPort, ss.swid, pi.InPort)
		return
	}

	c.hooks.OnPacketIn(ss.swid, pi.InPort, pi.BufferID, pi.TotalLen, pi.Data)
}

func (c *Controller) deliverStatsReply(ss *switchState, sr ofp.StatsReplyPort) {
	c.mu.Lock()
	ch := ss.pendingStatsCh
	ss.pendingStatsCh = nil
	c.mu.Unlock()
	if ch != nil {
		ch <- sr.Entries
	}
}

func (c *Controller) deliverBarrierReply(ss *switchState) {
	c.mu.Lock()
	ch := ss.pendingBarrierCh
	ss.pendingBarrierCh = nil
	c.mu.Unlock()
	if ch != nil {
		ch <- struct{}{}
	}
}

// closeSwitchLocked tears down one session. Callers must hold c.mu.
func (c *Controller) closeSwitchLocked(swid uint32, ss *switchState) {
	if ss.closed {
		return
	}
	ss.closed = true
	close(ss.closedCh)
	_ = ss.conn.Close()

	delete(c.switches, swid)
	if c.dpidToSwID[ss.dpid] == swid {
		delete(c.dpidToSwID, ss.dpid)
	}
}

// writeTo serializes one message onto the wire under the switch's own
// write mutex, independent of the dispatch loop and of any other writer.
func (c *Controller) writeTo(ss *switchState, msg ofp.Message) error {
	buf := ofp.Encode(ofp.NextXID(), msg)
	ss.writeMu.Lock()
	defer ss.writeMu.Unlock()
	_, err := ss.conn.Write(buf)
	return err
}

func writeRaw(conn net.Conn, buf []byte) error {
	_, err := conn.Write(buf)
	return err
}

// readMessage reads one complete OpenFlow message, header then exactly its
// declared body length, off r. It never returns a partial message.
func readMessage(r io.Reader) (ofp.Header, []byte, error) {
	hdrBuf := make([]byte, ofp.HeaderLen)
	if _, err := io.ReadFull(r, hdrBuf); err != nil {
		return ofp.Header{}, nil, err
	}
	h, err := ofp.UnmarshalHeader(hdrBuf)
	if err != nil {
		return ofp.Header{}, nil, err
	}

	bodyLen := int(h.Length) - ofp.HeaderLen
	if bodyLen < 0 {
		return ofp.Header{}, nil, ofp.ErrBadLength
	}
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return ofp.Header{}, nil, err
		}
	}
	return h, body, nil
}

// readHello consumes messages until HELLO arrives, answering any ECHO_
// REQUEST the switch sends unprompted during the handshake window.
func readHello(conn net.Conn) error {
	for {
		h, body, err := readMessage(conn)
		if err != nil {
			return err
		}
		switch h.Type {
		case ofp.TypeHello:
			return nil
		case ofp.TypeEchoRequest:
			if err := writeRaw(conn, ofp.Encode(h.XID, ofp.EchoReply{Data: body})); err != nil {
				return err
			}
		}
	}
}

func readFeaturesReply(conn net.Conn) (ofp.FeaturesReply, error) {
	for {
		h, body, err := readMessage(conn)
		if err != nil {
			return ofp.FeaturesReply{}, err
		}
		switch h.Type {
		case ofp.TypeFeaturesReply:
			return ofp.UnmarshalFeaturesReply(body)
		case ofp.TypeEchoRequest:
			if err := writeRaw(conn, ofp.Encode(h.XID, ofp.EchoReply{Data: body})); err != nil {
				return ofp.FeaturesReply{}, err
			}
		}
	}
}
