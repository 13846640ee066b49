package auth

// SessionCount reports how many sessions Local is holding.
func (l *Local) SessionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}
