package model

import (
	"context"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"gorm.io/gorm"

	"github.com/kelpbot/engine/common/logger"
)

// request is the unit of work the database actor's mailbox carries: an
// operation closure and the one-shot channel its result is delivered on,
// the same shape the cache actor uses.
type request struct {
	op    func(db *gorm.DB) (any, error)
	reply chan result
}

type result struct {
	val any
	err error
}

// Actor owns the *gorm.DB handle and serializes access to it through a
// mailbox, so callers outside this package never import gorm directly.
type Actor struct {
	db      *gorm.DB
	mailbox chan request
}

// NewActor wraps db behind a request/reply mailbox with the same bounded
// capacity (32) as the cache actor's mailbox.
func NewActor(db *gorm.DB) *Actor {
	return &Actor{db: db, mailbox: make(chan request, 32)}
}

// Run owns the mailbox loop until ctx is cancelled. Requests are received
// in order but dispatched onto their own goroutine, matching the cache
// actor's "serialize receipt, not execution" discipline.
func (a *Actor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-a.mailbox:
			if !ok {
				return
			}
			go a.dispatch(ctx, req)
		}
	}
}

func (a *Actor) dispatch(ctx context.Context, req request) {
	val, err := runWithSQLiteBusyRetryValue(ctx, func() (any, error) {
		return req.op(a.db)
	})
	if err != nil {
		logger.Logger.Debug("database actor operation failed", zap.Error(err))
	}
	req.reply <- result{val: val, err: err}
}

// runWithSQLiteBusyRetryValue adapts runWithSQLiteBusyRetry's error-only
// signature to operations that also return a value.
func runWithSQLiteBusyRetryValue(ctx context.Context, op func() (any, error)) (any, error) {
	var val any
	err := runWithSQLiteBusyRetry(ctx, func() error {
		v, err := op()
		val = v
		return err
	})
	return val, err
}

// call submits op to the mailbox and blocks for its reply, returning
// ctx.Err() if the actor is too backed up to accept the request before ctx
// is cancelled.
func (a *Actor) call(ctx context.Context, op func(db *gorm.DB) (any, error)) (any, error) {
	reply := make(chan result, 1)
	select {
	case a.mailbox <- request{op: op, reply: reply}:
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "submit database request")
	}

	select {
	case res := <-reply:
		return res.val, res.err
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "await database reply")
	}
}
