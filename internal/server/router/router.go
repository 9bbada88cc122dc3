// Package router runs the per-session delivery loop: read a frame, persist
// the message, push it to the recipient's live session and acknowledge the
// sender.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/dmitrijs2005/chatbook/internal/logging"
	"github.com/dmitrijs2005/chatbook/internal/server/models"
	"github.com/dmitrijs2005/chatbook/internal/server/registry"
	"github.com/go-playground/validator/v10"
)

// FrameReader yields inbound frames. An error ends the session.
type FrameReader interface {
	ReadFrame() ([]byte, error)
}

type MessagePersister interface {
	Persist(ctx context.Context, sender, receiver, content string) (*models.Message, error)
}

type Options struct {
	// MaxContentLength caps content in runes; 0 means no cap.
	MaxContentLength int
	// CloseSuperseded closes the session a new connection replaces.
	CloseSuperseded bool
	// SupersededCode is the close code used for a replaced session.
	SupersededCode int
}

type Router struct {
	registry   registry.Registry
	messages   MessagePersister
	logger     logging.Logger
	opts       Options
	validate   *validator.Validate
	contentTag string
}

// frameRules are the custom tags used by inboundFrame.
var frameRules = map[string]validator.Func{
	"notblank": func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	},
}

func newValidator(rules map[string]validator.Func) (*validator.Validate, error) {
	v := validator.New()
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %q validation: %w", tag, err)
		}
	}
	return v, nil
}

// New panics if the frame validation rules cannot be registered.
func New(reg registry.Registry, messages MessagePersister, logger logging.Logger, opts Options) *Router {
	v, err := newValidator(frameRules)
	if err != nil {
		panic(err)
	}
	r := &Router{
		registry: reg,
		messages: messages,
		logger:   logger.With("module", "router"),
		opts:     opts,
		validate: v,
	}
	if opts.MaxContentLength > 0 {
		r.contentTag = fmt.Sprintf("max=%d", opts.MaxContentLength)
	}
	return r
}

// Serve registers sess, processes its frames strictly in order until the
// reader fails or persistence breaks, and deregisters sess on the way out.
// Transport errors end the loop with nil; a persistence failure returns an
// error wrapping common.ErrPersistence.
func (r *Router) Serve(ctx context.Context, sess registry.Session, frames FrameReader) error {
	identity := sess.Identity()
	log := r.logger.With("user", identity, "session", sess.ID())

	if prev := r.registry.Register(identity, sess); prev != nil {
		log.Info(ctx, "session superseded", "previous", prev.ID())
		if r.opts.CloseSuperseded {
			_ = prev.Close(r.opts.SupersededCode, "superseded by a newer session")
		}
	} else {
		log.Info(ctx, "session registered")
	}
	defer func() {
		if r.registry.Deregister(identity, sess) {
			log.Info(ctx, "session deregistered")
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		data, err := frames.ReadFrame()
		if err != nil {
			log.Debug(ctx, "session read ended", "error", err)
			return nil
		}
		if err := r.handleFrame(ctx, log, sess, data); err != nil {
			return err
		}
	}
}

func (r *Router) handleFrame(ctx context.Context, log logging.Logger, sess registry.Session, data []byte) error {
	frame, err := r.parse(data)
	if err != nil {
		log.Info(ctx, "frame rejected", "reason", err)
		r.reply(ctx, log, sess, ErrorEnvelope{Error: ErrTextInvalidFormat})
		return nil
	}

	msg, err := r.messages.Persist(ctx, sess.Identity(), frame.To, frame.Content)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			log.Info(ctx, "frame rejected", "reason", "unknown user", "to", frame.To)
			r.reply(ctx, log, sess, ErrorEnvelope{Error: ErrTextUserNotFound})
			return nil
		}
		log.Error(ctx, "message persistence failed", "to", frame.To, "error", err)
		r.reply(ctx, log, sess, ErrorEnvelope{Error: ErrTextInternal})
		if !errors.Is(err, common.ErrPersistence) {
			err = fmt.Errorf("%w: %v", common.ErrPersistence, err)
		}
		return err
	}

	delivered := r.registry.Send(ctx, msg.Receiver, inboundFor(msg))
	log.Debug(ctx, "message routed", "id", msg.ID, "to", msg.Receiver, "delivered", delivered)

	if err := sess.Send(ctx, ackFor(msg)); err != nil {
		log.Warn(ctx, "ack failed", "id", msg.ID, "error", err)
	}
	return nil
}

func (r *Router) parse(data []byte) (*inboundFrame, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := r.validate.Struct(f); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if r.contentTag != "" {
		if err := r.validate.Var(f.Content, r.contentTag); err != nil {
			return nil, fmt.Errorf("%w: content too long", common.ErrValidation)
		}
	}
	return &f, nil
}

func (r *Router) reply(ctx context.Context, log logging.Logger, sess registry.Session, v any) {
	if err := sess.Send(ctx, v); err != nil {
		log.Warn(ctx, "reply failed", "error", err)
	}
}
