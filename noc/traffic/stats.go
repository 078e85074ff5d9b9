package traffic

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats collects the latency samples of delivered packets.
type Stats struct {
	PacketLatency  []float64
	NetworkLatency []float64
	Hops           []float64

	CreatedPackets int
	InjectedFlits  int
	EjectedFlits   int
	EjectedPackets int
}

// AddPacket records a packet whose tail flit was ejected.
func (s *Stats) AddPacket(packetLatency, networkLatency, hops int) {
	s.EjectedPackets++
	s.PacketLatency = append(s.PacketLatency, float64(packetLatency))
	s.NetworkLatency = append(s.NetworkLatency, float64(networkLatency))
	s.Hops = append(s.Hops, float64(hops))
}

// Merge adds the samples and counters of other to s.
func (s *Stats) Merge(other *Stats) {
	s.PacketLatency = append(s.PacketLatency, other.PacketLatency...)
	s.NetworkLatency = append(s.NetworkLatency, other.NetworkLatency...)
	s.Hops = append(s.Hops, other.Hops...)
	s.CreatedPackets += other.CreatedPackets
	s.InjectedFlits += other.InjectedFlits
	s.EjectedFlits += other.EjectedFlits
	s.EjectedPackets += other.EjectedPackets
}

// Summary condenses Stats into a few numbers.
type Summary struct {
	CreatedPackets int
	EjectedPackets int
	InjectedFlits  int
	EjectedFlits   int

	MeanPacketLatency   float64
	StdDevPacketLatency float64
	MinPacketLatency    float64
	MaxPacketLatency    float64
	MeanNetworkLatency  float64
	MeanHops            float64
}

// Summary computes the summary of the collected samples. Latency fields are
// zero when no packet has been delivered.
func (s *Stats) Summary() Summary {
	sum := Summary{
		CreatedPackets: s.CreatedPackets,
		EjectedPackets: s.EjectedPackets,
		InjectedFlits:  s.InjectedFlits,
		EjectedFlits:   s.EjectedFlits,
	}

	if len(s.PacketLatency) == 0 {
		return sum
	}

	sum.MeanPacketLatency, sum.StdDevPacketLatency =
		stat.MeanStdDev(s.PacketLatency, nil)
	sum.MinPacketLatency = floats.Min(s.PacketLatency)
	sum.MaxPacketLatency = floats.Max(s.PacketLatency)
	sum.MeanNetworkLatency = stat.Mean(s.NetworkLatency, nil)
	sum.MeanHops = stat.Mean(s.Hops, nil)

	return sum
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"packets created %d, delivered %d; flits injected %d, ejected %d\n"+
			"packet latency avg %.2f (std %.2f, min %.0f, max %.0f)\n"+
			"network latency avg %.2f, hops avg %.2f",
		s.CreatedPackets, s.EjectedPackets, s.InjectedFlits, s.EjectedFlits,
		s.MeanPacketLatency, s.StdDevPacketLatency,
		s.MinPacketLatency, s.MaxPacketLatency,
		s.MeanNetworkLatency, s.MeanHops)
}
