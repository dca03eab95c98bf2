package engine

// Tasks is a component's list of outstanding scheduled callbacks, keyed by
// purpose so a new schedule replaces the previous one.
type Tasks struct {
	byName map[string]Task
}

// Replace stops any task registered under name and records t in its place.
func (g *Tasks) Replace(name string, t Task) {
	if g.byName == nil {
		g.byName = make(map[string]Task)
	}
	if old, ok := g.byName[name]; ok {
		old.Stop()
	}
	g.byName[name] = t
}

// Stop cancels the task registered under name. It reports whether a pending
// fire was prevented.
func (g *Tasks) Stop(name string) bool {
	t, ok := g.byName[name]
	if !ok {
		return false
	}
	delete(g.byName, name)
	return t.Stop()
}

// Has reports whether a task is registered under name.
func (g *Tasks) Has(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// Forget drops name without stopping it. Used by a fire-once callback to
// clear its own entry.
func (g *Tasks) Forget(name string) {
	delete(g.byName, name)
}

// StopAll cancels every outstanding task.
func (g *Tasks) StopAll() {
	for name, t := range g.byName {
		t.Stop()
		delete(g.byName, name)
	}
}

// Len returns the number of registered tasks.
func (g *Tasks) Len() int {
	return len(g.byName)
}
