package queue

import "github.com/okian/resumatch/internal/domain/model"

// Delivery is one receipt of a task. Exactly one of Ack or Nack should be called.
type Delivery struct {
	Task model.AnalysisTask
	// Attempt starts at 1 and grows by one on every requeue.
	Attempt int

	ack  func() error
	nack func(requeue bool) error
}

// NewDelivery builds a Delivery whose acknowledgement is handled by ack and nack.
func NewDelivery(task model.AnalysisTask, attempt int, ack func() error, nack func(requeue bool) error) Delivery {
	return Delivery{Task: task, Attempt: attempt, ack: ack, nack: nack}
}

// Ack confirms the task is done.
func (d Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

// Nack rejects the task. With requeue it is delivered again with Attempt+1;
// without it the task is dropped.
func (d Delivery) Nack(requeue bool) error {
	if d.nack == nil {
		return nil
	}
	return d.nack(requeue)
}
