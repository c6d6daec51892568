package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sprite-ai/plugver/internal/governance"
	"github.com/sprite-ai/plugver/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true // local tooling only; the server binds to loopback by default
	},
}

// WebSocket message types from client.
const (
	wsMsgCheck = "check"
)

// WebSocket message types to client.
const (
	wsMsgStarted = "started"
	wsMsgPlugin  = "plugin"
	wsMsgReport  = "report"
	wsMsgError   = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsCheck is the payload for "check" messages.
type wsCheck struct {
	Staged bool   `json:"staged"`
	Branch string `json:"branch,omitempty"`
}

// wsStarted lists the plugins a check is about to classify.
type wsStarted struct {
	Run     string   `json:"run"`
	Plugins []string `json:"plugins"`
}

// wsReport is sent when a check finishes.
type wsReport struct {
	Run          string                    `json:"run"`
	Compliant    bool                      `json:"compliant"`
	NonCompliant []string                  `json:"non_compliant"`
	Plugins      []governance.PluginStatus `json:"plugins"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", err)
		return
	}
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendWSError(conn, "invalid message format")
			continue
		}

		switch msg.Type {
		case wsMsgCheck:
			s.handleWSCheck(r.Context(), conn, msg.Data)
		default:
			s.sendWSError(conn, "unknown message type: "+msg.Type)
		}
	}
}

// handleWSCheck streams one "plugin" message per checked plugin, then the
// report. Writes happen on this goroutine or inside OnStart/OnResult, which
// Check never runs concurrently with each other.
func (s *Server) handleWSCheck(ctx context.Context, conn *websocket.Conn, data json.RawMessage) {
	if s.checker == nil {
		s.sendWSError(conn, "check is unavailable: no repository configured")
		return
	}

	var req wsCheck
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			s.sendWSError(conn, "invalid check data")
			return
		}
	}

	run := uuid.NewString()
	log := s.log.With("run", run)
	log.Debug("check session started")

	scope := model.Scope{IncludeStaged: req.Staged, BranchRef: req.Branch}
	report, err := s.checker.Check(ctx, scope, governance.CheckOptions{
		OnStart: func(plugins []string) {
			if plugins == nil {
				plugins = []string{}
			}
			s.sendWSMessage(conn, wsMsgStarted, wsStarted{Run: run, Plugins: plugins})
		},
		OnResult: func(st governance.PluginStatus) {
			s.sendWSMessage(conn, wsMsgPlugin, st)
		},
	})
	if err != nil {
		log.Warn("check session failed", err)
		s.sendWSError(conn, "check failed: "+err.Error())
		return
	}

	plugins := report.Plugins
	if plugins == nil {
		plugins = []governance.PluginStatus{}
	}
	s.sendWSMessage(conn, wsMsgReport, wsReport{
		Run:          run,
		Compliant:    report.Compliant(),
		NonCompliant: report.NonCompliant,
		Plugins:      plugins,
	})
}

func (s *Server) sendWSMessage(conn *websocket.Conn, msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.log.Error("ws marshal", err)
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := conn.WriteJSON(msg); err != nil {
		s.log.Warn("ws write", err)
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, errMsg string) {
	s.sendWSMessage(conn, wsMsgError, map[string]string{"message": errMsg})
}
