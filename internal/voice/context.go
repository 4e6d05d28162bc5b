package voice

// rollingContext is the bounded FIFO of recent user-utterance texts
// fed to the text-generation service. Append-and-trim, oldest dropped
// on overflow. Mutated only by the engine's run loop.
type rollingContext struct {
	texts []string
	limit int
}

func newRollingContext(limit int) *rollingContext {
	return &rollingContext{limit: limit}
}

func (c *rollingContext) push(text string) {
	c.texts = append(c.texts, text)
	if len(c.texts) > c.limit {
		c.texts = c.texts[len(c.texts)-c.limit:]
	}
}

// snapshot returns a copy safe to hand to the gateway.
func (c *rollingContext) snapshot() []string {
	out := make([]string, len(c.texts))
	copy(out, c.texts)
	return out
}

func (c *rollingContext) len() int {
	return len(c.texts)
}
