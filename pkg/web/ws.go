package web

import (
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

// wsEvent is one message on the query WebSocket channel. Kind is
// "processing" while a query is in flight and "result" when it finishes;
// "error" reports a bad client message.
type wsEvent struct {
	Kind   string         `json:"kind"`
	ID     string         `json:"id,omitempty"`
	Error  string         `json:"error,omitempty"`
	Result *queryResponse `json:"result,omitempty"`
}

// handleWS runs a query conversation over a WebSocket. The client sends
// {"query": ...} messages; for each, the server emits a processing event
// followed by the result. The connection handles one query at a time.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	for {
		var req queryRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			// Normal close or client gone.
			return
		}

		if strings.TrimSpace(req.Query) == "" {
			if err := wsjson.Write(ctx, conn, wsEvent{Kind: "error", Error: "query must not be empty"}); err != nil {
				return
			}
			continue
		}

		id := uuid.NewString()
		if err := wsjson.Write(ctx, conn, wsEvent{Kind: "processing", ID: id}); err != nil {
			return
		}

		res := s.proc.Process(ctx, req.Query)

		resp := toQueryResponse(id, res)
		if err := wsjson.Write(ctx, conn, wsEvent{Kind: "result", ID: id, Result: &resp}); err != nil {
			return
		}
	}
}
