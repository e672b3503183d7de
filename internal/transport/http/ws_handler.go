package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/kstepanov/dmbridge-server/internal/auth"
	"github.com/kstepanov/dmbridge-server/internal/core"
	"github.com/kstepanov/dmbridge-server/internal/proto"
)

// WSHandler upgrades HTTP connections and runs the connection lifecycle:
// admit, bind from the handshake credential, roster broadcast, message
// routing, evict.
type WSHandler struct {
	registry *core.Registry
	presence *core.Presence
	router   *core.Router
	auth     *auth.Service
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(
	registry *core.Registry,
	presence *core.Presence,
	router *core.Router,
	authService *auth.Service,
	logger *zerolog.Logger,
) stdhttp.Handler {
	return &WSHandler{
		registry: registry,
		presence: presence,
		router:   router,
		auth:     authService,
		log:      logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewConn()
	h.registry.Admit(client)

	// Bind identity from the handshake credential. Verification failure
	// leaves the connection admitted but unbound; it still sees roster
	// updates and cannot send.
	if token := credentialFromRequest(r); token != "" {
		if claims, verr := h.auth.VerifyToken(token); verr != nil {
			h.log.Debug().Err(verr).Str("conn_id", client.ID).Msg("handshake credential rejected, connection stays unbound")
		} else if berr := h.registry.Bind(client, claims.UserID, claims.Username); berr != nil {
			h.log.Warn().Err(berr).Str("conn_id", client.ID).Msg("bind failed")
		}
	}

	h.presence.BroadcastRoster()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	client.Close()
	<-errCh

	h.registry.Evict(client)
	h.presence.BroadcastRoster()

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop processes inbound envelopes in arrival order. Invalid envelopes
// are dropped without closing the connection; only transport errors end
// the loop.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Conn) error {
	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return err
		}

		if err := h.router.Route(ctx, client, env); err != nil {
			switch {
			case errors.Is(err, core.ErrEmptyEnvelope),
				errors.Is(err, core.ErrSelfMessage),
				errors.Is(err, core.ErrUnboundSender):
				h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("dropped invalid envelope")
			default:
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("failed to route message")
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Conn) error {
	for {
		select {
		case payload, ok := <-client.Outbox:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, payload); err != nil {
				h.log.Error().Err(err).Str("conn_id", client.ID).Msg("write ws payload")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
