// Package checkpointer saves objects periodically as a global step
// advances
package checkpointer

// Saver is an object which can save itself to a file
type Saver interface {
	Save(path string) error
}

// Checkpointer checkpoints a Saver based on the global step
type Checkpointer interface {
	Checkpoint(step int) error
}
