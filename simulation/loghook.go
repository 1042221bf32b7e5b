package simulation

import (
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/cache"
)

// LogHook writes every cache access to a logrus logger at trace level.
type LogHook struct {
	logger logrus.FieldLogger
}

// NewLogHook creates a LogHook writing to logger.
func NewLogHook(logger logrus.FieldLogger) *LogHook {
	return &LogHook{logger: logger}
}

// Func logs the access described by ctx. Other hook positions are ignored.
func (h *LogHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	c, ok := ctx.Item.(*cache.Cache)
	if !ok {
		return
	}

	detail, ok := ctx.Detail.(cache.AccessDetail)
	if !ok {
		return
	}

	fields := logrus.Fields{
		"cache":   c.Name(),
		"address": detail.Address,
		"op":      detail.Operation.String(),
		"tag":     detail.Decoded.Tag,
		"set":     detail.Decoded.SetIndex,
		"way":     detail.Way,
	}

	if detail.Evicted {
		fields["evicted"] = detail.EvictedAddress
	}

	h.logger.WithFields(fields).Trace(detail.Outcome.String())
}
