package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/cmdrelay/cmdrelay/internal/admin"
	"github.com/cmdrelay/cmdrelay/internal/types"
)

const (
	eventBuffer = 256

	// Bridge lines can carry full component JSON; allow generous lines.
	maxLineBytes = 256 * 1024
)

// message is the bridge wire format, one JSON object per line.
type message struct {
	Type string `json:"type"`

	// hello
	Commands map[string]string `json:"commands,omitempty"`

	// join / move
	Actor       *actorInfo `json:"actor,omitempty"`
	Permissions []string   `json:"permissions,omitempty"`

	// trigger / feedback / quit / admin
	ActorID   string   `json:"actorId,omitempty"`
	Command   string   `json:"command,omitempty"`
	Component string   `json:"component,omitempty"`
	Plain     string   `json:"plain,omitempty"`
	Args      []string `json:"args,omitempty"`

	// message (outbound replies)
	Text string `json:"text,omitempty"`
}

// actorInfo is the wire form of an actor announcement.
type actorInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Group   string `json:"group,omitempty"`
	Mention string `json:"mention,omitempty"`
	World   string `json:"world,omitempty"`
	X       int    `json:"x,omitempty"`
	Y       int    `json:"y,omitempty"`
	Z       int    `json:"z,omitempty"`
}

func (a *actorInfo) toActor() types.Actor {
	return types.Actor{
		ID:   types.ActorID(a.ID),
		Name: a.Name,
		Location: types.Location{
			World: a.World,
			X:     a.X,
			Y:     a.Y,
			Z:     a.Z,
		},
	}
}

// Server accepts bridge connections and fans their events out to the
// correlator. It implements the correlator's Source.
type Server struct {
	logger *zap.Logger
	addr   string
	admin  *admin.Command
	roster *Roster

	triggers    chan types.TriggerEvent
	feedback    chan types.FeedbackSignal
	disconnects chan types.DisconnectEvent

	mu sync.Mutex
	ln net.Listener
}

// NewServer creates a bridge server listening on addr once started.
func NewServer(addr string, roster *Roster, adminCmd *admin.Command, logger *zap.Logger) *Server {
	return &Server{
		logger:      logger.Named("ingest"),
		addr:        addr,
		admin:       adminCmd,
		roster:      roster,
		triggers:    make(chan types.TriggerEvent, eventBuffer),
		feedback:    make(chan types.FeedbackSignal, eventBuffer),
		disconnects: make(chan types.DisconnectEvent, eventBuffer),
	}
}

// Triggers implements correlator.Source.
func (s *Server) Triggers() <-chan types.TriggerEvent { return s.triggers }

// Feedback implements correlator.Source.
func (s *Server) Feedback() <-chan types.FeedbackSignal { return s.feedback }

// Disconnects implements correlator.Source.
func (s *Server) Disconnects() <-chan types.DisconnectEvent { return s.disconnects }

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start listens for bridge connections until the context is cancelled.
// Blocks.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.logger.Info("Bridge listener started", zap.String("address", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				wg.Wait()
				s.logger.Info("Bridge listener stopped")
				return nil
			}
			s.logger.Warn("Accept failed", zap.Error(err))
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn reads one bridge connection line by line until it closes.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	s.logger.Info("Bridge connected", zap.String("remote", remote))

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	writer := &connWriter{conn: conn}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			s.logger.Warn("Malformed bridge line", zap.String("remote", remote), zap.Error(err))
			continue
		}
		s.handleMessage(&msg, writer)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.logger.Warn("Bridge read failed", zap.String("remote", remote), zap.Error(err))
	}
	s.logger.Info("Bridge disconnected", zap.String("remote", remote))
}

// handleMessage routes one decoded bridge message.
func (s *Server) handleMessage(msg *message, writer *connWriter) {
	switch msg.Type {
	case "hello":
		s.roster.SetCommands(msg.Commands)
		s.logger.Info("Command table updated", zap.Int("commands", len(msg.Commands)))

	case "join":
		if msg.Actor == nil {
			s.logger.Warn("join without actor")
			return
		}
		s.roster.Upsert(msg.Actor.toActor(), msg.Actor.Group, msg.Actor.Mention, msg.Permissions)

	case "move":
		if msg.Actor == nil {
			s.logger.Warn("move without actor")
			return
		}
		s.roster.Update(msg.Actor.toActor(), msg.Actor.Group)

	case "trigger":
		actor, known := s.roster.Actor(types.ActorID(msg.ActorID))
		if !known {
			// The host raced the join announcement; track what we have.
			actor = types.Actor{ID: types.ActorID(msg.ActorID), Name: msg.ActorID}
		}
		s.emitTrigger(types.TriggerEvent{Actor: actor, Command: msg.Command})

	case "feedback":
		s.emitFeedback(types.FeedbackSignal{
			Actor:     types.ActorID(msg.ActorID),
			Component: msg.Component,
			Plain:     msg.Plain,
		})

	case "quit":
		id := types.ActorID(msg.ActorID)
		s.roster.Evict(id)
		s.emitDisconnect(types.DisconnectEvent{Actor: id})

	case "admin":
		issuer := &bridgeIssuer{
			id:     types.ActorID(msg.ActorID),
			roster: s.roster,
			writer: writer,
		}
		s.admin.Execute(issuer, msg.Args)

	default:
		s.logger.Warn("Unknown bridge message type", zap.String("type", msg.Type))
	}
}

func (s *Server) emitTrigger(ev types.TriggerEvent) {
	select {
	case s.triggers <- ev:
	default:
		s.logger.Warn("Trigger channel full, dropping event",
			zap.String("actor", string(ev.Actor.ID)))
	}
}

func (s *Server) emitFeedback(sig types.FeedbackSignal) {
	select {
	case s.feedback <- sig:
	default:
		s.logger.Warn("Feedback channel full, dropping signal",
			zap.String("actor", string(sig.Actor)))
	}
}

func (s *Server) emitDisconnect(ev types.DisconnectEvent) {
	select {
	case s.disconnects <- ev:
	default:
		s.logger.Warn("Disconnect channel full, dropping event",
			zap.String("actor", string(ev.Actor)))
	}
}

// connWriter serializes reply lines onto a bridge connection.
type connWriter struct {
	mu   sync.Mutex
	conn net.Conn
}

func (w *connWriter) writeMessage(msg message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	raw = append(raw, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.conn.Write(raw)
	return err
}

// bridgeIssuer adapts an admin message's sender to the admin.Issuer
// interface, replying over the originating connection.
type bridgeIssuer struct {
	id     types.ActorID
	roster *Roster
	writer *connWriter
}

func (b *bridgeIssuer) Name() string {
	if actor, ok := b.roster.Actor(b.id); ok {
		return actor.Name
	}
	return string(b.id)
}

func (b *bridgeIssuer) HasPermission(node string) bool {
	return b.roster.HasPermission(b.id, node)
}

func (b *bridgeIssuer) Reply(text string) {
	// Reply failures mean the bridge is gone; nothing useful to do.
	_ = b.writer.writeMessage(message{
		Type:    "message",
		ActorID: string(b.id),
		Text:    text,
	})
}
