package publishers

import "context"

// Publisher delivers sync events to one downstream destination.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Logger is the minimal logging surface publishers need.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
