package dynamic

// Enter makes d the Evaluator's current dynamic scope and returns a
// release func that restores the previous one. Callers must defer the
// release on every exit path, including errors (spec §5: "the slot
// follows strict stack discipline... guaranteed release on every exit
// path, including failure").
func (ev *Evaluator) Enter(d *Scope) (release func()) {
	prev := ev.current
	ev.current = d
	return func() { ev.current = prev }
}

// Current returns the Evaluator's current dynamic scope, the slot
// built-ins consult when they need the active scope without it being
// threaded explicitly (spec §5, §9's "scoped process-wide slot").
func (ev *Evaluator) Current() *Scope { return ev.current }
