package pipelining

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/nocsim/sim"
)

type pipelineItem struct {
	taskID string
}

func (p pipelineItem) TaskID() string {
	return p.taskID
}

var _ = Describe("Pipeline", func() {
	var (
		postPipelineBuffer sim.Buffer
		pipeline           Pipeline
	)

	BeforeEach(func() {
		postPipelineBuffer = sim.NewBuffer("PostBuf", 1)
		pipeline = MakeBuilder().
			WithPipelineWidth(1).
			WithNumStage(3).
			WithCyclePerStage(2).
			WithPostPipelineBuffer(postPipelineBuffer).
			Build("Pipeline")
	})

	It("should process items in pipeline", func() {
		item1 := pipelineItem{taskID: "1"}
		item2 := pipelineItem{taskID: "2"}

		Expect(pipeline.CanAccept()).To(BeTrue())
		pipeline.Accept(item1)
		Expect(pipeline.CanAccept()).To(BeFalse())
		Expect(func() { pipeline.Accept(item2) }).To(Panic())

		Expect(pipeline.Tick()).To(BeTrue())
		Expect(pipeline.CanAccept()).To(BeFalse())
		Expect(pipeline.Tick()).To(BeTrue())
		Expect(pipeline.CanAccept()).To(BeTrue())
		pipeline.Accept(item2)
		Expect(pipeline.NumItems()).To(Equal(2))

		for i := 2; i < 6; i++ {
			Expect(pipeline.Tick()).To(BeTrue())
		}

		Expect(postPipelineBuffer.Peek()).To(Equal(item1))

		// The post buffer is full, item2 cannot leave.
		Expect(pipeline.Tick()).To(BeTrue())
		Expect(pipeline.Tick()).To(BeFalse())
		Expect(pipeline.NumItems()).To(Equal(1))

		postPipelineBuffer.Pop()
		Expect(pipeline.Tick()).To(BeTrue())
		Expect(postPipelineBuffer.Peek()).To(Equal(item2))
		Expect(pipeline.NumItems()).To(Equal(0))
	})

	It("should pass through when there is no stage", func() {
		pipeline = MakeBuilder().
			WithNumStage(0).
			WithPostPipelineBuffer(postPipelineBuffer).
			Build("Pipeline")

		Expect(pipeline.CanAccept()).To(BeTrue())
		pipeline.Accept(pipelineItem{taskID: "1"})
		Expect(postPipelineBuffer.Size()).To(Equal(1))
		Expect(pipeline.CanAccept()).To(BeFalse())
	})

	It("should move several lanes at once", func() {
		postPipelineBuffer = sim.NewBuffer("PostBuf", 4)
		pipeline = MakeBuilder().
			WithPipelineWidth(2).
			WithNumStage(1).
			WithPostPipelineBuffer(postPipelineBuffer).
			Build("Pipeline")

		pipeline.Accept(pipelineItem{taskID: "1"})
		pipeline.Accept(pipelineItem{taskID: "2"})
		Expect(pipeline.CanAccept()).To(BeFalse())

		Expect(pipeline.Tick()).To(BeTrue())
		Expect(postPipelineBuffer.Size()).To(Equal(2))
	})

	It("should require a post pipeline buffer", func() {
		Expect(func() { MakeBuilder().Build("Pipeline") }).To(Panic())
	})
})
