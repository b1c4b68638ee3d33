package joint

import (
	"github.com/san-kum/dynjoint/internal/physics"
	"github.com/sirupsen/logrus"
)

var _ physics.BreakListener = (*breakListener)(nil)

// breakListener is subscribed to one end object and forwards its breaks to
// the host.
type breakListener struct {
	host Host
	self physics.ObjectID
	log  *logrus.Logger
}

func newBreakListener(host Host, self physics.ObjectID, log *logrus.Logger) *breakListener {
	return &breakListener{host: host, self: self, log: log}
}

func (l *breakListener) selfHosted() bool {
	return l.host.Object() == l.self
}

func (l *breakListener) warnInconsistent() {
	l.log.WithFields(logrus.Fields{
		"object": l.self,
		"host":   l.host.Object(),
	}).Warn("inconsistent configuration: break listener is its own host")
}

func (l *breakListener) OnJointBreak(force float64) {
	if l.selfHosted() {
		l.warnInconsistent()
		return
	}
	if !l.host.HasParent() {
		// Already detached by an earlier break in the same assembly.
		l.log.WithFields(logrus.Fields{
			"object": l.self,
			"force":  force,
		}).Debug("break on detached host ignored")
		return
	}
	l.host.OnJointBreak(force)
}
