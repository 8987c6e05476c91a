package service

// Delegates is the sole channel for side effects a pipeline stage may reach:
// stage tracing and incremental answer delivery. All hooks are synchronous;
// keep them fast. Embed NoopDelegates to implement a subset.
type Delegates interface {
	// EnterStage fires when a stage starts.
	EnterStage(name string)

	// LeaveStage fires when a stage completes, with the fields it resolved.
	LeaveStage(name string, fields map[string]string)

	// StreamDelta receives each answer fragment as the model produces it.
	StreamDelta(text string)
}

// NoopDelegates implements Delegates with no-ops.
type NoopDelegates struct{}

func (NoopDelegates) EnterStage(string)                   {}
func (NoopDelegates) LeaveStage(string, map[string]string) {}
func (NoopDelegates) StreamDelta(string)                   {}

// StreamFunc adapts a plain delta callback into a Delegates value whose
// stage hooks do nothing. Front-ends that only care about streamed text
// chain one of these with a Tracker.
type StreamFunc func(delta string)

func (StreamFunc) EnterStage(string)                    {}
func (StreamFunc) LeaveStage(string, map[string]string) {}

func (f StreamFunc) StreamDelta(text string) { f(text) }

// DelegateChain fans each hook out to an ordered list of delegates.
// Front-ends combine their own delegate with a Tracker this way.
type DelegateChain struct {
	delegates []Delegates
}

// Join builds a chain from the given delegates, skipping nils.
func Join(delegates ...Delegates) *DelegateChain {
	c := &DelegateChain{}
	for _, d := range delegates {
		if d != nil {
			c.delegates = append(c.delegates, d)
		}
	}
	return c
}

func (c *DelegateChain) EnterStage(name string) {
	for _, d := range c.delegates {
		d.EnterStage(name)
	}
}

func (c *DelegateChain) LeaveStage(name string, fields map[string]string) {
	for _, d := range c.delegates {
		d.LeaveStage(name, fields)
	}
}

func (c *DelegateChain) StreamDelta(text string) {
	for _, d := range c.delegates {
		d.StreamDelta(text)
	}
}

var (
	_ Delegates = NoopDelegates{}
	_ Delegates = StreamFunc(nil)
	_ Delegates = (*DelegateChain)(nil)
)
