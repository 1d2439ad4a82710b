package mintage

// outbox holds plugin notifications raised while r.mu is held. They are
// delivered by flush once the lock is released, so slow plugins never
// stall other mutations.
//
// Declare it and defer flush before taking the lock:
//
//	var out outbox
//	defer out.flush()
//	r.mu.Lock()
//	defer r.mu.Unlock()
type outbox struct {
	pending []func()
}

func (o *outbox) add(fn func()) {
	o.pending = append(o.pending, fn)
}

// flush delivers the queued notifications in order.
func (o *outbox) flush() {
	pending := o.pending
	o.pending = nil
	for _, fn := range pending {
		fn()
	}
}
