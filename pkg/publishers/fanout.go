package publishers

import (
	"context"
	"errors"
)

// Fanout publishes each event to every configured publisher. One failed
// publisher does not stop delivery to the others.
type Fanout struct {
	publishers []Publisher
	log        Logger
}

func NewFanout(pubs []Publisher, log Logger) *Fanout {
	if log == nil {
		log = NopLogger{}
	}
	return &Fanout{publishers: pubs, log: log}
}

// Publish sends evt to every publisher and returns the number of
// successful deliveries along with the joined errors of the failures.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	var errs []error
	delivered := 0
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			f.log.Warnf("publisher %s failed for %s %s: %v", p.Name(), evt.ContentType, evt.RemoteID, err)
			errs = append(errs, err)
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

// Close closes every publisher and joins their errors.
func (f *Fanout) Close() error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports the number of configured publishers.
func (f *Fanout) Len() int {
	return len(f.publishers)
}
