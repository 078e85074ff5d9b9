package buffers

import (
	"fmt"

	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/router"
	"github.com/sarchlab/nocsim/sim"
)

// OutputQueues hold the flits that crossed the switch until their output
// channel is free. At most one flit per output leaves per external cycle.
type OutputQueues struct {
	queues []sim.Buffer
}

// NewOutputQueues creates one queue per output. Credits bound the number of
// flits heading to an output, so a queue never holds more than the
// downstream buffer space.
func NewOutputQueues(owner sim.Named, outputs int, vcs VCConfig) *OutputQueues {
	q := &OutputQueues{queues: make([]sim.Buffer, outputs)}

	for o := range q.queues {
		name := fmt.Sprintf("%s.OutputQueue[%d]", owner.Name(), o)
		q.queues[o] = sim.NewBuffer(name, vcs.NumVCs*vcs.BufSize)
	}

	return q
}

// Push adds a flit to the queue of an output.
func (q *OutputQueues) Push(output int, f *messaging.Flit) {
	q.queues[output].Push(f)
}

// Send puts the oldest flit of every output queue on its output channel.
func (q *OutputQueues) Send(r *router.Base) {
	for o, queue := range q.queues {
		if queue.Size() == 0 {
			continue
		}

		f := queue.Pop().(*messaging.Flit)
		f.Hops++

		ch := r.OutputChannel(o)
		if ch != nil {
			ch.Send(f)
		}
	}
}
