package uds

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFrame is returned when decoding a zero-length payload.
	ErrEmptyFrame = errors.New("uds: empty frame")
	// ErrShortNegativeResponse is returned when a 7F frame is missing its
	// rejected SID or NRC byte.
	ErrShortNegativeResponse = errors.New("uds: negative response shorter than 3 bytes")
)

// Request is an outgoing UDS request. SubFunction is optional; services
// without a sub-function leave it nil.
type Request struct {
	Service     ServiceID
	SubFunction *byte
	Data        []byte
}

// NewRequest builds a request without a sub-function byte.
func NewRequest(service ServiceID, data []byte) *Request {
	return &Request{Service: service, Data: data}
}

// NewSubFunctionRequest builds a request carrying a sub-function byte.
func NewSubFunctionRequest(service ServiceID, subFunction byte, data []byte) *Request {
	return &Request{Service: service, SubFunction: &subFunction, Data: data}
}

// Marshal encodes the request for the transport layer.
func (r *Request) Marshal() []byte {
	out := make([]byte, 0, 2+len(r.Data))
	out = append(out, byte(r.Service))
	if r.SubFunction != nil {
		out = append(out, *r.SubFunction)
	}
	out = append(out, r.Data...)
	return out
}

func (r *Request) String() string {
	if r.SubFunction != nil {
		return fmt.Sprintf("request %s sub=0x%02X data=% X", r.Service, *r.SubFunction, r.Data)
	}
	return fmt.Sprintf("request %s data=% X", r.Service, r.Data)
}

// Response is a decoded UDS response. NRC is nil for positive responses; for
// negative responses Data is empty and Service holds the rejected SID.
type Response struct {
	Service ServiceID
	Data    []byte
	NRC     *NRC
}

// IsPositive reports whether the response is a positive one.
func (r *Response) IsPositive() bool {
	return r.NRC == nil
}

// Marshal encodes the response the way an ECU would put it on the wire.
func (r *Response) Marshal() []byte {
	if r.NRC != nil {
		return []byte{NegativeResponseSID, byte(r.Service), byte(*r.NRC)}
	}
	out := make([]byte, 0, 1+len(r.Data))
	out = append(out, r.Service.PositiveResponse())
	out = append(out, r.Data...)
	return out
}

// UnmarshalResponse decodes a reassembled response payload. A first byte of
// 0x7F marks a negative response carrying the rejected SID and the NRC;
// anything else is a positive response whose SID is offset by 0x40.
func UnmarshalResponse(data []byte) (*Response, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}

	if data[0] == NegativeResponseSID {
		if len(data) < 3 {
			return nil, ErrShortNegativeResponse
		}
		nrc := NRC(data[2])
		return &Response{Service: ServiceID(data[1]), NRC: &nrc}, nil
	}

	resp := &Response{Service: ServiceID(data[0] - PositiveResponseOffset)}
	if len(data) > 1 {
		resp.Data = make([]byte, len(data)-1)
		copy(resp.Data, data[1:])
	}
	return resp, nil
}

func (r *Response) String() string {
	if r.NRC != nil {
		return fmt.Sprintf("response %s (-) NRC: %s", r.Service, *r.NRC)
	}
	return fmt.Sprintf("response %s (+) data=% X", r.Service, r.Data)
}
