package router

import "log"

// SetOutputFault marks output port index as failed or healthy. Strategies
// are expected to avoid faulty outputs; the base only records the flag.
func (b *Base) SetOutputFault(index int, faulty bool) {
	b.faultIndexMustBeValid(index)
	b.outputFaults[index] = faulty
}

// IsOutputFaulty tells if output port index is marked as failed.
func (b *Base) IsOutputFaulty(index int) bool {
	b.faultIndexMustBeValid(index)
	return b.outputFaults[index]
}

func (b *Base) faultIndexMustBeValid(index int) {
	if index < 0 || index >= len(b.outputFaults) {
		log.Panicf("router %s: output %d out of range, %d outputs registered",
			b.name, index, len(b.outputFaults))
	}
}
