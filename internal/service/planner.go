// README: Top-level planner orchestrating sessions, dialogue turns, and persistence.
package service

import (
	"context"

	"go.uber.org/zap"

	"atlas/internal/modules/conversation"
	"atlas/internal/plan"
	"atlas/internal/trip"
)

const apologyReply = "Sorry, something went wrong on my end. Could you say that again?"

// Planner ties the dialogue controller to session storage. One Planner
// serves all sessions; per-session state lives in the conversation store.
type Planner struct {
	controller *trip.Controller
	sessions   *conversation.Service
	log        *zap.Logger
}

func NewPlanner(controller *trip.Controller, sessions *conversation.Service, log *zap.Logger) *Planner {
	return &Planner{controller: controller, sessions: sessions, log: log}
}

// HandleTurn runs one dialogue turn for the session. An empty sessionID
// starts a new session; the (possibly new) ID is always returned. A panic
// anywhere in the turn is converted into an apology so the user is never
// left without a reply.
func (p *Planner) HandleTurn(ctx context.Context, sessionID, utterance string) (id string, reply *plan.TurnReply, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("turn panicked", zap.Any("panic", r), zap.String("session_id", id))
			reply = plan.Notice(apologyReply)
			err = nil
		}
	}()

	var sess *conversation.Session
	if sessionID == "" {
		sess, err = p.sessions.StartSession(ctx)
	} else {
		sess, err = p.sessions.Load(ctx, sessionID)
	}
	if err != nil {
		return sessionID, nil, err
	}
	id = sess.ID

	reply, err = p.controller.HandleTurn(ctx, sess.State, utterance)
	if err != nil {
		return id, nil, err
	}

	if err := p.sessions.Save(ctx, sess); err != nil {
		p.log.Error("saving session state failed", zap.Error(err), zap.String("session_id", id))
	}
	if err := p.sessions.RecordTurn(ctx, id, conversation.RoleUser, utterance); err != nil {
		p.log.Warn("recording user turn failed", zap.Error(err))
	}
	if err := p.sessions.RecordTurn(ctx, id, conversation.RoleAssistant, reply.Message); err != nil {
		p.log.Warn("recording assistant turn failed", zap.Error(err))
	}

	return id, reply, nil
}

// Reset discards the stored state of a session.
func (p *Planner) Reset(ctx context.Context, sessionID string) error {
	return p.sessions.Reset(ctx, sessionID)
}

// History returns the logged turns of a session.
func (p *Planner) History(ctx context.Context, sessionID string, limit int) ([]conversation.Turn, error) {
	return p.sessions.History(ctx, sessionID, limit)
}
