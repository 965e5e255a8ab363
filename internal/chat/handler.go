package chat

import (
	"context"
	"log/slog"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
)

// wsTransport adapts a coder/websocket connection to the Transport seam.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	return data, err
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t *wsTransport) Close(code websocket.StatusCode, reason string) error {
	// Closing twice returns an error from the library; callers treat close
	// as idempotent, so it is swallowed here.
	err := t.conn.Close(code, reason)
	if err != nil {
		slog.Debug("Websocket close after close", "error", err)
	}
	return nil
}

// Handler upgrades chat connections and runs one session per connection.
type Handler struct {
	deps SessionDeps
}

// NewHandler creates the websocket endpoint handler.
func NewHandler(deps SessionDeps) *Handler {
	return &Handler{deps: deps}
}

// Serve handles GET /ws/chat. Authentication happens inside the session's
// handshake, not at the HTTP layer: the first frame carries the token.
func (h *Handler) Serve(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// The API serves browsers on other origins in development.
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return err
	}

	session := NewSession(&wsTransport{conn: conn}, h.deps)
	session.Run(c.Request().Context())
	return nil
}
