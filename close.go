package sensego

// Close releases the engine's scorer. Later calls to any Engine method
// return ErrClosed, including a second Close.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scorer.Release()
	return nil
}
