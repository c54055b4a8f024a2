package isotp

import "time"

// Timing carries the ISO 15765-2 / ISO 14229 timing parameters the transport
// and client enforce. Zero values are replaced by defaults in NewTiming.
type Timing struct {
	// P2 is how long the client waits for the first response frame after a
	// request has been sent.
	p2 time.Duration
	// P2* replaces P2 while the server keeps answering
	// requestCorrectlyReceived-ResponsePending (NRC 0x78).
	p2Star time.Duration
	// N_Bs bounds the wait for a flow control frame during multi-frame send.
	nBs time.Duration
	// N_Cr bounds the gap between consecutive frames during multi-frame receive.
	nCr time.Duration
	// stMinFallback is applied when the peer sends an out-of-range STmin.
	stMinFallback time.Duration
	// blockSize advertised in our flow control frames; 0 means no limit.
	blockSize byte
	// padding enables padding every transmitted frame to 8 bytes.
	padding bool
	// paddingByte is the fill value used when padding is enabled.
	paddingByte byte
}

// NewTiming returns the transport timing parameters at their defaults.
func NewTiming() *Timing {
	return &Timing{
		p2:            1 * time.Second,
		p2Star:        5 * time.Second,
		nBs:           1 * time.Second,
		nCr:           1 * time.Second,
		stMinFallback: 10 * time.Millisecond,
		blockSize:     0,
		padding:       true,
		paddingByte:   0xAA,
	}
}

func (t *Timing) P2() time.Duration {
	return t.p2
}

func (t *Timing) SetP2(p2 time.Duration) {
	t.p2 = p2
}

func (t *Timing) P2Star() time.Duration {
	return t.p2Star
}

func (t *Timing) SetP2Star(p2Star time.Duration) {
	t.p2Star = p2Star
}

func (t *Timing) NBs() time.Duration {
	return t.nBs
}

func (t *Timing) SetNBs(nBs time.Duration) {
	t.nBs = nBs
}

func (t *Timing) NCr() time.Duration {
	return t.nCr
}

func (t *Timing) SetNCr(nCr time.Duration) {
	t.nCr = nCr
}

func (t *Timing) STminFallback() time.Duration {
	return t.stMinFallback
}

func (t *Timing) SetSTminFallback(d time.Duration) {
	t.stMinFallback = d
}

func (t *Timing) BlockSize() byte {
	return t.blockSize
}

func (t *Timing) SetBlockSize(bs byte) {
	t.blockSize = bs
}

func (t *Timing) Padding() bool {
	return t.padding
}

func (t *Timing) SetPadding(enabled bool) {
	t.padding = enabled
}

func (t *Timing) PaddingByte() byte {
	return t.paddingByte
}

func (t *Timing) SetPaddingByte(b byte) {
	t.paddingByte = b
}
