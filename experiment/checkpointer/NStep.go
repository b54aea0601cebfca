package checkpointer

import "fmt"

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	object   Saver

	// filename returns the name of the file to save the object in at
	// each checkpoint. Use Fixed to always overwrite the same file, or
	// Enumerated to keep every checkpoint.
	filename func() string
}

// NewNStep returns a Checkpointer that checkpoints every n steps
func NewNStep(n int, object Saver, filename func() string) (Checkpointer,
	error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be >= 1, got %v", n)
	}
	if object == nil || filename == nil {
		return nil, fmt.Errorf("newNStep: nothing to checkpoint")
	}

	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the tracked object if step is a multiple of the
// interval
func (n *nStep) Checkpoint(step int) error {
	if step%n.interval != 0 {
		return nil
	}
	if err := n.object.Save(n.filename()); err != nil {
		return fmt.Errorf("checkpoint: step %v: %w", step, err)
	}
	return nil
}
