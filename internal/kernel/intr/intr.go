// Package intr simulates the interrupt controller of a single processor.
//
// The controller tracks the interrupt level (on or off), whether execution is
// currently inside an interrupt handler, and a queue of raised interrupts.
// An interrupt raised while interrupts are off stays pending and is delivered
// the moment interrupts are turned back on, which is what makes "disable
// interrupts, check, mutate, restore" an atomic section on this machine.
//
// Handlers run with interrupts off and Context() reporting true. A handler
// that makes a higher-priority thread ready cannot switch threads itself; it
// calls YieldOnReturn and the controller invokes the yield hook installed by
// the scheduler once the handler has returned.
//
// Usage mirrors a kernel's own interrupt API:
//
//	old := ic.Disable()
//	// ... critical section ...
//	ic.SetLevel(old)
package intr

import "github.com/kolkov/ksynch/internal/kernel/fault"

// Level is the interrupt delivery state.
type Level int

const (
	// Off means interrupts are masked.
	Off Level = iota
	// On means interrupts are delivered.
	On
)

// String returns "on" or "off".
func (l Level) String() string {
	if l == On {
		return "on"
	}
	return "off"
}

// Handler is the body of a simulated interrupt.
type Handler func()

type pending struct {
	name    string
	handler Handler
}

// Controller is the interrupt state of one simulated processor.
//
// A Controller is not safe for concurrent use; only the thread that owns the
// processor may touch it.
type Controller struct {
	level         Level
	inContext     bool
	yieldOnReturn bool
	queue         []pending
	onReturn      func()
	current       string
	delivered     uint64
}

// New returns a controller with interrupts off, the state of a processor
// that has not started its first thread yet.
func New() *Controller {
	return &Controller{level: Off}
}

// SetYieldHook installs the function called after a handler that requested
// YieldOnReturn has finished.
func (c *Controller) SetYieldHook(fn func()) {
	c.onReturn = fn
}

// Level returns the current interrupt level.
func (c *Controller) Level() Level {
	return c.level
}

// Context reports whether execution is inside an interrupt handler.
func (c *Controller) Context() bool {
	return c.inContext
}

// Handling returns the name of the interrupt being handled, or "".
func (c *Controller) Handling() string {
	if !c.inContext {
		return ""
	}
	return c.current
}

// Disable masks interrupts and returns the previous level.
func (c *Controller) Disable() Level {
	old := c.level
	c.level = Off
	return old
}

// Enable unmasks interrupts, delivers anything pending, and returns the
// previous level. It must not be called from a handler.
func (c *Controller) Enable() Level {
	fault.Assert(!c.inContext, fault.CodeInterruptContext,
		"interrupts enabled inside handler %q", c.current)
	old := c.level
	c.level = On
	c.deliver()
	return old
}

// SetLevel switches to level and returns the previous level.
func (c *Controller) SetLevel(level Level) Level {
	if level == On {
		return c.Enable()
	}
	return c.Disable()
}

// Raise signals an interrupt. It runs immediately when interrupts are on and
// no handler is active, otherwise it is queued until they are.
func (c *Controller) Raise(name string, h Handler) {
	c.queue = append(c.queue, pending{name: name, handler: h})
	if c.level == On && !c.inContext {
		c.deliver()
	}
}

// Pending returns the number of raised interrupts not yet delivered.
func (c *Controller) Pending() int {
	return len(c.queue)
}

// Delivered returns the number of handlers that have completed.
func (c *Controller) Delivered() uint64 {
	return c.delivered
}

// YieldOnReturn asks for the interrupted thread to yield once the current
// handler returns. Only valid inside a handler.
func (c *Controller) YieldOnReturn() {
	fault.Assert(c.inContext, fault.CodeInterruptContext,
		"yield-on-return requested outside an interrupt handler")
	c.yieldOnReturn = true
}

func (c *Controller) deliver() {
	for c.level == On && !c.inContext && len(c.queue) > 0 {
		p := c.queue[0]
		c.queue = c.queue[1:]

		c.level = Off
		c.inContext = true
		c.current = p.name
		p.handler()
		c.current = ""
		c.inContext = false
		c.level = On
		c.delivered++

		if c.yieldOnReturn {
			c.yieldOnReturn = false
			if c.onReturn != nil {
				c.onReturn()
			}
		}
	}
}
