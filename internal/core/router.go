package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kstepanov/dmbridge-server/internal/blob"
	"github.com/kstepanov/dmbridge-server/internal/proto"
	"github.com/kstepanov/dmbridge-server/internal/store"
)

// Router validates inbound envelopes, persists them and forwards each
// message to the receiver's live connections. Delivery happens only after
// the write is durable; persistence failures drop the envelope without
// touching the sender's connection.
type Router struct {
	registry *Registry
	messages store.MessageStore
	blobs    blob.Store
	log      *zerolog.Logger
	now      func() time.Time
}

// NewRouter builds a message router.
func NewRouter(registry *Registry, messages store.MessageStore, blobs blob.Store, logger *zerolog.Logger) *Router {
	return &Router{
		registry: registry,
		messages: messages,
		blobs:    blobs,
		log:      logger,
		now:      time.Now,
	}
}

// Route processes one inbound envelope from sender.
//
// Malformed envelopes (no receiver, no content, self-addressed) and
// envelopes from unbound connections are rejected before anything is
// persisted. The receiver being offline is not an error: the message is
// persisted and simply has nowhere to go until a history query finds it.
func (r *Router) Route(ctx context.Context, sender *Conn, env proto.Envelope) error {
	senderID, _, bound := r.registry.Identity(sender)
	if !bound {
		return ErrUnboundSender
	}
	if env.Receiver == 0 || !env.HasContent() {
		return ErrEmptyEnvelope
	}
	if env.Receiver == senderID {
		return ErrSelfMessage
	}

	var fileKey string
	if env.File != nil && env.File.Data != "" {
		key := blob.Key(env.File.Name, r.now())
		data, err := blob.DecodePayload(env.File.Data)
		if err != nil {
			return fmt.Errorf("decode attachment: %w", err)
		}
		if err := r.blobs.Put(ctx, key, data); err != nil {
			return fmt.Errorf("store attachment: %w", err)
		}
		fileKey = key
	}

	msg := &store.Message{
		SenderID:   senderID,
		ReceiverID: env.Receiver,
		Text:       env.Text,
		FileKey:    fileKey,
	}
	if err := r.messages.SaveMessage(ctx, msg); err != nil {
		return fmt.Errorf("save message: %w", err)
	}

	delivery := proto.Delivery{
		Text:      msg.Text,
		Sender:    msg.SenderID,
		Receiver:  msg.ReceiverID,
		MessageID: msg.ID,
	}
	if fileKey != "" {
		delivery.File = &fileKey
	}

	// Fresh lookup at delivery time; the sender's own connections are not
	// echoed back.
	for _, c := range r.registry.ListByUser(env.Receiver) {
		if !c.TrySend(delivery) {
			r.log.Debug().
				Str("conn_id", c.ID).
				Int64("message_id", msg.ID).
				Msg("dropped delivery to slow connection")
		}
	}

	return nil
}
