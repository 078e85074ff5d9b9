// Package traffic provides the terminals that inject packets into a network
// and eject them from it, together with the synthetic traffic patterns that
// choose packet destinations.
package traffic

import (
	"fmt"
	"log"

	"github.com/iti/rngstream"
	"github.com/sarchlab/nocsim/datarecording"
	"github.com/sarchlab/nocsim/noc/channel"
	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/messaging"
	"github.com/sarchlab/nocsim/noc/router/buffers"
	"github.com/sarchlab/nocsim/sim"
)

// PacketTable is the table that terminals record delivered packets in.
const PacketTable = "packet"

// PacketRecord is one delivered packet.
type PacketRecord struct {
	PID         int
	Src         int
	Dest        int
	Size        int
	Hops        int
	CreateCycle int
	InjectCycle int
	ArriveCycle int
	Latency     int
}

// CreatePacketTable prepares recorder for PacketRecord entries.
func CreatePacketTable(recorder datarecording.DataRecorder) {
	recorder.CreateTable(PacketTable, PacketRecord{})
}

// A Terminal is a traffic source and sink attached to the local port of a
// router. It sends flits on its injection channel while it has credits and
// returns a credit for every flit it ejects.
type Terminal struct {
	name     string
	id       int
	numNodes int

	vcs        buffers.VCConfig
	packetSize int
	rate       float64
	pattern    Pattern
	rng        Rand
	recorder   datarecording.DataRecorder

	inject       *channel.FlitChannel
	injectCredit *channel.CreditChannel
	eject        *channel.FlitChannel
	ejectCredit  *channel.CreditChannel

	credits       []int
	queue         []*messaging.Flit
	nextVC        int
	numPackets    int
	pendingCredit *messaging.Credit
	cycle         int

	stats Stats
}

// Builder can build terminals.
type Builder struct {
	cfg      config.Source
	numNodes int
	pattern  Pattern
	rng      Rand
	recorder datarecording.DataRecorder
}

// MakeBuilder creates a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithConfig sets the source of num_vcs, vc_buf_size, packet_size,
// injection_rate and seed_name.
func (b Builder) WithConfig(cfg config.Source) Builder {
	b.cfg = cfg
	return b
}

// WithNumNodes sets the number of terminals in the network.
func (b Builder) WithNumNodes(n int) Builder {
	b.numNodes = n
	return b
}

// WithPattern sets the traffic pattern.
func (b Builder) WithPattern(p Pattern) Builder {
	b.pattern = p
	return b
}

// WithRand replaces the random stream of the terminal.
func (b Builder) WithRand(rng Rand) Builder {
	b.rng = rng
	return b
}

// WithRecorder makes the terminal record every delivered packet. The packet
// table must have been created with CreatePacketTable.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// Build creates a terminal.
func (b Builder) Build(name string, id int) (*Terminal, error) {
	b.configMustBeGiven()
	sim.NameMustBeValid(name)

	vcs, err := buffers.ReadVCConfig(b.cfg)
	if err != nil {
		return nil, fmt.Errorf("terminal %s: %w", name, err)
	}

	packetSize, err := b.cfg.GetInt("packet_size")
	if err != nil {
		return nil, fmt.Errorf("terminal %s: %w", name, err)
	}

	if packetSize < 1 {
		return nil, fmt.Errorf("terminal %s: %w: packet_size must be "+
			"positive, got %d", name, config.ErrInvalidValue, packetSize)
	}

	rate, err := b.cfg.GetFloat("injection_rate")
	if err != nil {
		return nil, fmt.Errorf("terminal %s: %w", name, err)
	}

	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("terminal %s: %w: injection_rate must be "+
			"within [0, 1], got %g", name, config.ErrInvalidValue, rate)
	}

	rng := b.rng
	if rng == nil {
		seed, err := b.cfg.GetStr("seed_name")
		if err != nil {
			return nil, fmt.Errorf("terminal %s: %w", name, err)
		}

		rng = rngstream.New(seed + "." + name)
	}

	t := &Terminal{
		name:       name,
		id:         id,
		numNodes:   b.numNodes,
		vcs:        vcs,
		packetSize: packetSize,
		rate:       rate,
		pattern:    b.pattern,
		rng:        rng,
		recorder:   b.recorder,
		credits:    make([]int, vcs.NumVCs),
	}

	for vc := range t.credits {
		t.credits[vc] = vcs.BufSize
	}

	return t, nil
}

func (b Builder) configMustBeGiven() {
	if b.cfg == nil {
		panic("terminal builder requires a configuration")
	}

	if b.pattern == nil {
		panic("terminal builder requires a traffic pattern")
	}

	if b.numNodes < 1 {
		panic("terminal builder requires the number of nodes")
	}
}

// Name returns the name of the terminal.
func (t *Terminal) Name() string {
	return t.name
}

// ID returns the terminal ID, which equals the ID of its router.
func (t *Terminal) ID() int {
	return t.id
}

// ConnectInject makes the terminal the source of ch. Credits for ch arrive
// on credit.
func (t *Terminal) ConnectInject(
	ch *channel.FlitChannel,
	credit *channel.CreditChannel,
) {
	t.inject = ch
	t.injectCredit = credit
	ch.SetSource(t, 0)
}

// ConnectEject makes the terminal the sink of ch. Credits for ch are returned
// on credit.
func (t *Terminal) ConnectEject(
	ch *channel.FlitChannel,
	credit *channel.CreditChannel,
) {
	t.eject = ch
	t.ejectCredit = credit
	ch.SetSink(t, 0)
}

// SetInjectionRate changes the probability of creating a packet each cycle.
func (t *Terminal) SetInjectionRate(rate float64) {
	t.rate = rate
}

// SendPacket queues a packet for dest regardless of the injection rate.
func (t *Terminal) SendPacket(dest int) {
	if dest < 0 || dest >= t.numNodes {
		log.Panicf("terminal %s: destination %d out of range", t.name, dest)
	}

	pid := t.numPackets*t.numNodes + t.id
	t.numPackets++

	flits := messaging.MakeFlitBuilder().
		WithSrc(t.id).
		WithDest(dest).
		WithPID(pid).
		WithSize(t.packetSize).
		WithVC(t.nextVC).
		WithCTime(t.cycle).
		BuildPacket()

	t.nextVC = (t.nextVC + 1) % t.vcs.NumVCs
	t.queue = append(t.queue, flits...)
	t.stats.CreatedPackets++
}

// Evaluate ejects the arriving flit, collects credits and creates a new
// packet with the configured probability.
func (t *Terminal) Evaluate() {
	t.wiringMustBeComplete()

	t.ejectFlit()
	t.receiveCredit()

	if t.rate > 0 && t.rng.RandU01() < t.rate {
		t.SendPacket(t.pattern(t.id, t.rng))
	}
}

// WriteOutputs injects at most one flit and returns the credits of the
// flits ejected in this cycle.
func (t *Terminal) WriteOutputs() {
	t.injectFlit()

	if t.pendingCredit != nil {
		t.ejectCredit.Send(t.pendingCredit)
		t.pendingCredit = nil
	}

	t.cycle++
}

func (t *Terminal) wiringMustBeComplete() {
	if t.inject == nil || t.eject == nil {
		log.Panicf("terminal %s is not connected", t.name)
	}
}

func (t *Terminal) ejectFlit() {
	f, ok := t.eject.Receive()
	if !ok {
		return
	}

	if f.Dest != t.id {
		log.Panicf("terminal %s received %s", t.name, f)
	}

	f.ATime = t.cycle
	t.stats.EjectedFlits++

	if t.pendingCredit == nil {
		t.pendingCredit = messaging.NewCredit()
	}

	t.pendingCredit.Add(f.VC)

	if f.Tail {
		t.deliver(f)
	}
}

func (t *Terminal) deliver(tail *messaging.Flit) {
	latency := tail.ATime - tail.CTime
	t.stats.AddPacket(latency, tail.ATime-tail.ITime, tail.Hops)

	if t.recorder == nil {
		return
	}

	t.recorder.InsertData(PacketTable, PacketRecord{
		PID:         tail.PID,
		Src:         tail.Src,
		Dest:        tail.Dest,
		Size:        tail.SeqID + 1,
		Hops:        tail.Hops,
		CreateCycle: tail.CTime,
		InjectCycle: tail.ITime,
		ArriveCycle: tail.ATime,
		Latency:     latency,
	})
}

func (t *Terminal) receiveCredit() {
	c, ok := t.injectCredit.Receive()
	if !ok {
		return
	}

	for _, vc := range c.VCs {
		t.credits[vc]++

		if t.credits[vc] > t.vcs.BufSize {
			log.Panicf("terminal %s: credits of VC %d exceed %d",
				t.name, vc, t.vcs.BufSize)
		}
	}
}

func (t *Terminal) injectFlit() {
	if len(t.queue) == 0 {
		return
	}

	f := t.queue[0]
	if t.credits[f.VC] == 0 {
		return
	}

	t.credits[f.VC]--
	f.ITime = t.cycle
	t.inject.Send(f)

	t.queue[0] = nil
	t.queue = t.queue[1:]
	t.stats.InjectedFlits++
}

// NumQueuedFlits returns the number of flits waiting to be injected.
func (t *Terminal) NumQueuedFlits() int {
	return len(t.queue)
}

// Stats returns the statistics of the packets ejected at this terminal.
func (t *Terminal) Stats() *Stats {
	return &t.stats
}
