package engine

import "log"

// compensation collects undo actions as a multi-write operation progresses.
// The flows here span rows with no shared transaction, so all-or-nothing is
// approximated by running the undos in reverse when a later step fails.
type compensation struct {
	steps []compensationStep
}

type compensationStep struct {
	name string
	undo func() error
}

func (c *compensation) add(name string, undo func() error) {
	c.steps = append(c.steps, compensationStep{name: name, undo: undo})
}

func logRollbackFailure(op, step string, err error) {
	log.Printf("DATA INTEGRITY: %s rollback step [%s] failed: %s\n", op, step, err.Error())
}

// rollback runs every recorded undo in reverse order. An undo that fails is
// logged loudly and skipped; the remaining undos still run. Callers surface
// the original failure, not rollback errors.
func (c *compensation) rollback(op string) {
	for i := len(c.steps) - 1; i >= 0; i-- {
		s := c.steps[i]
		if err := s.undo(); err != nil {
			logRollbackFailure(op, s.name, err)
		}
	}
	c.steps = nil
}
