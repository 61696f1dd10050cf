package eth_test

import (
	"github.com/db47h/axisim"
	"github.com/db47h/axisim/eth"
	"github.com/db47h/axisim/hwlib"
	"github.com/db47h/axisim/hwtest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// gmiiLine holds the transmit signals of a device, driven by hand.
//
type gmiiLine struct {
	s    *axisim.Sim
	txd  uint8
	txen bool
	txer bool
}

// cycle runs one clock cycle starting with a rising edge.
//
func (l *gmiiLine) cycle() error {
	if err := l.s.Step(); err != nil {
		return err
	}
	return l.s.Step()
}

func (l *gmiiLine) send(frame []byte) error {
	for _, b := range frame {
		l.txen, l.txd = true, b
		if err := l.cycle(); err != nil {
			return err
		}
	}
	l.txen = false
	return l.cycle()
}

func (l *gmiiLine) idle(n int) error {
	for i := 0; i < n; i++ {
		if err := l.cycle(); err != nil {
			return err
		}
	}
	return nil
}

var _ = Describe("GMII", func() {
	var (
		s   *axisim.Sim
		clk *axisim.ClockGen
		m   *axisim.Metrics
		out *axisim.SliceSink[byte]
	)

	BeforeEach(func() {
		var err error
		m, err = axisim.NewMetrics(prometheus.NewRegistry())
		Expect(err).NotTo(HaveOccurred())
		out = new(axisim.SliceSink[byte])
		lb := hwlib.NewGMIILoopback(3)
		s = axisim.NewSim(lb, axisim.WithMetrics(m), axisim.WithLogger(hwtest.Logger(GinkgoT())))
		clk, err = axisim.NewClockGen(s, 1e-9, 125e6)
		Expect(err).NotTo(HaveOccurred())
		s.AddClock(clk, &lb.Clk)
		_, err = eth.NewGMIISource(s, clk, &lb.RxD, &lb.RxDV, &lb.RxEr, axisim.NewSliceSource(
			[]byte{1, 2, 3, 4, 5},
			hwtest.Counting(100),
			hwtest.Counting(1500),
			hwtest.Counting(60),
		), "phy_rx")
		Expect(err).NotTo(HaveOccurred())
		_, err = eth.NewGMIISink(s, clk, &lb.TxD, &lb.TxEn, &lb.TxEr, out, eth.GMIISinkConfig{Name: "phy_tx"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("carries frames through a loopback device", func() {
		Expect(s.Run(func() bool { return out.Len() == 4 }, 1<<20)).To(Succeed())
		got := out.Packets()
		Expect(got[0]).To(Equal(pad([]byte{1, 2, 3, 4, 5})))
		Expect(got[1]).To(Equal(hwtest.Counting(100)))
		Expect(got[2]).To(Equal(hwtest.Counting(1500)))
		Expect(got[3]).To(Equal(hwtest.Counting(60)))
		Expect(testutil.ToFloat64(m.Packets.WithLabelValues("phy_rx"))).To(Equal(4.0))
		Expect(testutil.ToFloat64(m.Packets.WithLabelValues("phy_tx"))).To(Equal(4.0))
		Expect(testutil.ToFloat64(m.Beats.WithLabelValues("phy_rx"))).
			To(Equal(testutil.ToFloat64(m.Beats.WithLabelValues("phy_tx"))))
	})
})

var _ = Describe("GMIISink", func() {
	var (
		line *gmiiLine
		sink *eth.GMIISink
		out  *axisim.SliceSink[byte]
		cfg  eth.GMIISinkConfig
	)
	payload := hwtest.Counting(64)

	BeforeEach(func() {
		cfg = eth.GMIISinkConfig{}
	})

	JustBeforeEach(func() {
		s := axisim.NewSim(nil, axisim.WithLogger(hwtest.Logger(GinkgoT())))
		clk, err := axisim.NewClockGen(s, 1, 0.5)
		Expect(err).NotTo(HaveOccurred())
		line = &gmiiLine{s: s}
		out = new(axisim.SliceSink[byte])
		sink, err = eth.NewGMIISink(s, clk, &line.txd, &line.txen, &line.txer, out, cfg)
		Expect(err).NotTo(HaveOccurred())
	})

	It("strips the FCS", func() {
		Expect(line.send(eth.Frame(payload))).To(Succeed())
		Expect(out.Packets()).To(Equal([][]byte{payload}))
		Expect(sink.Frames()).To(Equal(1))
	})

	Context("with KeepFCS", func() {
		BeforeEach(func() {
			cfg.KeepFCS = true
		})

		It("forwards the FCS", func() {
			f := eth.Frame(payload)
			Expect(line.send(f)).To(Succeed())
			Expect(out.Packets()).To(Equal([][]byte{f[eth.PreambleLen+1:]}))
		})
	})

	It("enforces the inter packet gap", func() {
		Expect(line.send(eth.Frame(payload))).To(Succeed())
		Expect(line.idle(eth.InterPacketGap - 2)).To(Succeed())
		err := line.send(eth.Frame(payload))
		Expect(axisim.KindOf(err)).To(Equal(axisim.KindGap))
	})

	It("accepts a frame after a full gap", func() {
		Expect(line.send(eth.Frame(payload))).To(Succeed())
		Expect(line.idle(eth.InterPacketGap - 1)).To(Succeed())
		Expect(line.send(eth.Frame(payload))).To(Succeed())
		Expect(sink.Frames()).To(Equal(2))
	})

	// sendBroken transmits f with tx_er raised on byte 20, then releases the
	// line.
	sendBroken := func(f []byte) {
		for i, b := range f {
			line.txen, line.txd, line.txer = true, b, i == 20
			Expect(line.cycle()).To(Succeed())
		}
		line.txen, line.txer = false, false
	}

	It("drops frames with a line error", func() {
		f := eth.Frame(payload)
		sendBroken(f)
		Expect(line.idle(eth.InterPacketGap)).To(Succeed())
		Expect(out.Len()).To(BeZero())
		Expect(sink.LineErrors()).To(Equal(1))

		Expect(line.send(f)).To(Succeed())
		Expect(out.Packets()).To(Equal([][]byte{payload}))
	})

	It("enforces the inter packet gap after a dropped frame", func() {
		f := eth.Frame(payload)
		sendBroken(f)
		Expect(line.idle(eth.InterPacketGap - 1)).To(Succeed())
		err := line.send(f)
		Expect(axisim.KindOf(err)).To(Equal(axisim.KindGap))
		Expect(out.Len()).To(BeZero())
	})

	It("reports framing errors", func() {
		f := eth.Frame(payload)
		f[30]++
		err := line.send(f)
		Expect(axisim.KindOf(err)).To(Equal(axisim.KindCRC))
	})
})

var _ = Describe("RMIISink", func() {
	var (
		s     *axisim.Sim
		out   *axisim.SliceSink[byte]
		txd   uint8
		txen  bool
		rxd   uint8
		crsdv bool
	)

	BeforeEach(func() {
		s = axisim.NewSim(nil, axisim.WithLogger(hwtest.Logger(GinkgoT())))
		clk, err := axisim.NewClockGen(s, 1, 0.5)
		Expect(err).NotTo(HaveOccurred())
		out = new(axisim.SliceSink[byte])
		rxd, crsdv = 0xff, true
		_, err = eth.NewRMIISink(s, clk, &txd, &txen, &rxd, &crsdv, nil, out, "")
		Expect(err).NotTo(HaveOccurred())
	})

	cycle := func() error {
		if err := s.Step(); err != nil {
			return err
		}
		return s.Step()
	}

	// send transmits p as dibits, least significant pair first.
	send := func(p []byte) error {
		for _, b := range p {
			for i := 0; i < 4; i++ {
				txen, txd = true, (b>>(2*uint(i)))&3
				if err := cycle(); err != nil {
					return err
				}
			}
		}
		txen = false
		return cycle()
	}

	It("holds the receive side low", func() {
		Expect(rxd).To(BeZero())
		Expect(crsdv).To(BeFalse())
	})

	It("reassembles bytes and strips the preamble", func() {
		f := eth.Frame([]byte{0xde, 0xad, 0xbe, 0xef})
		Expect(send(f)).To(Succeed())
		Expect(out.Packets()).To(Equal([][]byte{f[eth.PreambleLen+1:]}))
	})

	It("rejects a short preamble", func() {
		f := eth.Frame([]byte{1})
		Expect(axisim.KindOf(send(f[1:]))).To(Equal(axisim.KindPreamble))
	})

	It("rejects garbage in the preamble", func() {
		f := eth.Frame([]byte{1})
		f[2] = 0x42
		Expect(axisim.KindOf(send(f))).To(Equal(axisim.KindPreamble))
	})

	It("rejects a frame without SFD", func() {
		Expect(axisim.KindOf(send(preamble(eth.PreambleLen)))).To(Equal(axisim.KindTruncated))
	})
})
