package models

// Listeners is a list of callbacks attached to one entity notification.
// It is not safe for concurrent use; entities are only touched from the
// session loop.
type Listeners[T any] struct {
	subs []*listener[T]
}

type listener[T any] struct {
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it again.
func (l *Listeners[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	sub := &listener[T]{fn: fn}
	l.subs = append(l.subs, sub)
	return func() {
		if sub.fn == nil {
			return
		}
		sub.fn = nil
		for i, s := range l.subs {
			if s == sub {
				l.subs = append(l.subs[:i], l.subs[i+1:]...)
				break
			}
		}
	}
}

func (l *Listeners[T]) Emit(v T) {
	if len(l.subs) == 0 {
		return
	}
	subs := make([]*listener[T], len(l.subs))
	copy(subs, l.subs)
	for _, s := range subs {
		if s.fn != nil {
			s.fn(v)
		}
	}
}

func (l *Listeners[T]) Len() int {
	return len(l.subs)
}
