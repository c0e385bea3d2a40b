package gameserver

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/creaturesim/internal/game/creature"
)

// LogNotifier delivers creature output to a zap logger. It stands in for
// client connections.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
//
// Precondition: logger must be non-nil.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// TextMessage implements creature.Notifier.
func (n *LogNotifier) TextMessage(to *creature.Creature, text string) {
	n.logger.Info("text message",
		zap.Uint32("to", to.ID()),
		zap.String("text", text),
	)
}

// Say implements creature.Notifier.
func (n *LogNotifier) Say(c *creature.Creature, text string) {
	n.logger.Info("creature says",
		zap.Uint32("creature", c.ID()),
		zap.String("name", c.Name()),
		zap.Stringer("pos", c.Position()),
		zap.String("text", text),
	)
}

// CancelWalk implements creature.Notifier.
func (n *LogNotifier) CancelWalk(c *creature.Creature, reason error) {
	n.logger.Debug("walk cancelled",
		zap.Uint32("creature", c.ID()),
		zap.Error(reason),
	)
}

// HealthChanged implements creature.Notifier.
func (n *LogNotifier) HealthChanged(c *creature.Creature) {
	n.logger.Debug("health changed",
		zap.Uint32("creature", c.ID()),
		zap.Int("health", c.Health()),
		zap.Int("max_health", c.MaxHealth()),
	)
}
