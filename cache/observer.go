package cache

import "github.com/sirupsen/logrus"

// Observer is the fixed set of callback entry points fired after a cache
// mutation commits, while the cache's lock is still held. An observer must
// not call back into the same Cache. A panicking observer is recovered,
// logged, and otherwise ignored — it never fails the operation that
// triggered it.
type Observer interface {
	OnHit(key string)
	OnMiss(key string)
	OnSet(key string)
	OnDelete(key string)
	OnExpire(key string)
	OnEvict(key string)
}

// LoggingObserver is the default Observer, emitting one structured debug
// record per event via logrus.WithFields, matching the teacher's own
// logger.WithFields(logrus.Fields{...}) idiom.
type LoggingObserver struct {
	Name string
}

func (o LoggingObserver) fields(key string) logrus.Fields {
	return logrus.Fields{"cache": o.Name, "key": key}
}

func (o LoggingObserver) OnHit(key string) {
	logrus.WithFields(o.fields(key)).Debug("cache hit")
}

func (o LoggingObserver) OnMiss(key string) {
	logrus.WithFields(o.fields(key)).Debug("cache miss")
}

func (o LoggingObserver) OnSet(key string) {
	logrus.WithFields(o.fields(key)).Debug("cache set")
}

func (o LoggingObserver) OnDelete(key string) {
	logrus.WithFields(o.fields(key)).Debug("cache delete")
}

func (o LoggingObserver) OnExpire(key string) {
	logrus.WithFields(o.fields(key)).Debug("cache entry expired")
}

func (o LoggingObserver) OnEvict(key string) {
	logrus.WithFields(o.fields(key)).Debug("cache entry evicted")
}

// dispatch calls every registered observer for one event, recovering from
// and logging any panic so a misbehaving observer never corrupts the
// operation that triggered it.
func dispatch(observers []Observer, call func(Observer)) {
	for _, obs := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithFields(logrus.Fields{"panic": r}).Error("cache observer panicked, skipping")
				}
			}()
			call(obs)
		}()
	}
}
