package eth_test

import (
	"encoding/binary"

	"github.com/db47h/axisim"
	"github.com/db47h/axisim/eth"
	"github.com/db47h/axisim/hwtest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// pad returns p zero padded to the minimum payload size.
//
func pad(p []byte) []byte {
	if len(p) >= eth.MinPayload {
		return p
	}
	return append(append([]byte(nil), p...), make([]byte, eth.MinPayload-len(p))...)
}

func preamble(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = eth.PreambleByte
	}
	return p
}

var _ = Describe("FCS", func() {
	It("is the IEEE CRC32", func() {
		Expect(eth.FCS([]byte("123456789"))).To(Equal(uint32(0xCBF43926)))
	})
})

var _ = Describe("Frame", func() {
	payload := []byte{1, 2, 3, 4, 5}

	It("pads, prepends the preamble and appends the FCS", func() {
		f := eth.Frame(payload)
		Expect(f).To(HaveLen(eth.PreambleLen + 1 + eth.MinPayload + eth.FCSLen))
		Expect(f[:eth.PreambleLen]).To(Equal(preamble(eth.PreambleLen)))
		Expect(f[eth.PreambleLen]).To(Equal(byte(eth.SFD)))
		body := f[eth.PreambleLen+1:]
		Expect(body[:eth.MinPayload]).To(Equal(pad(payload)))
		Expect(binary.BigEndian.Uint32(body[eth.MinPayload:])).To(Equal(eth.FCS(pad(payload))))
	})

	It("does not pad long payloads", func() {
		p := hwtest.Counting(100)
		Expect(eth.Frame(p)).To(HaveLen(eth.PreambleLen + 1 + 100 + eth.FCSLen))
	})

	It("does not modify its input", func() {
		p := make([]byte, 5, 100)
		copy(p, payload)
		eth.Frame(p)
		Expect(p[:cap(p)][5:]).To(Equal(make([]byte, 95)))
	})
})

var _ = Describe("Deframe", func() {
	payload := []byte{1, 2, 3, 4, 5}

	It("recovers a padded payload", func() {
		p, err := eth.Deframe(eth.Frame(payload), false)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(HaveLen(eth.MinPayload))
		Expect(p[:5]).To(Equal(payload))
		Expect(p).To(Equal(pad(payload)))
	})

	It("keeps the FCS on request", func() {
		p, err := eth.Deframe(eth.Frame(payload), true)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(HaveLen(eth.MinFrame))
		Expect(binary.BigEndian.Uint32(p[eth.MinPayload:])).To(Equal(eth.FCS(pad(payload))))
	})

	It("accepts a long preamble", func() {
		f := append(preamble(3), eth.Frame(payload)...)
		p, err := eth.Deframe(f, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(pad(payload)))
	})

	DescribeTable("rejects malformed frames",
		func(mangle func([]byte) []byte, kind axisim.Kind) {
			_, err := eth.Deframe(mangle(eth.Frame(payload)), false)
			Expect(err).To(HaveOccurred())
			Expect(axisim.KindOf(err)).To(Equal(kind))
		},
		Entry("corrupted payload", func(f []byte) []byte { f[10] ^= 0x80; return f }, axisim.KindCRC),
		Entry("corrupted FCS", func(f []byte) []byte { f[len(f)-1]++; return f }, axisim.KindCRC),
		Entry("short preamble", func(f []byte) []byte { return f[1:] }, axisim.KindPreamble),
		Entry("no preamble", func(f []byte) []byte { return f[eth.PreambleLen:] }, axisim.KindPreamble),
		Entry("bad SFD", func(f []byte) []byte { f[eth.PreambleLen] = 0xd4; return f }, axisim.KindSFD),
		Entry("preamble only", func(f []byte) []byte { return f[:eth.PreambleLen] }, axisim.KindTruncated),
		Entry("too short", func(f []byte) []byte { return f[:len(f)-1] }, axisim.KindFrameSize),
	)
})
