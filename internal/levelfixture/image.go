package levelfixture

import "encoding/binary"

// image is a growing file buffer. The header is reserved up front and
// sections are appended on 16-byte boundaries so no section sits at offset 0.
type image struct {
	b []byte
}

func newImage(headerSize int) *image {
	return &image{b: make([]byte, headerSize)}
}

func (im *image) align() {
	for len(im.b)%0x10 != 0 {
		im.b = append(im.b, 0)
	}
}

// offset aligns the buffer and returns where the next write lands.
func (im *image) offset() uint32 {
	im.align()
	return uint32(len(im.b))
}

// write appends the big-endian encoding of each value.
func (im *image) write(vals ...any) {
	for _, v := range vals {
		b, err := binary.Append(im.b, binary.BigEndian, v)
		if err != nil {
			panic(err)
		}
		im.b = b
	}
}

// reserve appends n zero bytes and returns their offset.
func (im *image) reserve(n int) uint32 {
	off := im.offset()
	im.b = append(im.b, make([]byte, n)...)
	return off
}

func (im *image) putUint32(at int64, v uint32) {
	binary.BigEndian.PutUint32(im.b[at:], v)
}

func (im *image) putDescriptor(at int64, off uint32, count int32) {
	im.putUint32(at, off)
	im.putUint32(at+4, uint32(count))
}

// blob appends data and returns its descriptor values. Empty data is absent.
func (im *image) blob(data []byte) (uint32, int32) {
	if len(data) == 0 {
		return 0, 0
	}
	off := im.offset()
	im.b = append(im.b, data...)
	return off, int32(len(data))
}

// padded returns data cut or zero-extended to n bytes.
func padded(data []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, data)
	return out
}

// Pattern returns n deterministic bytes derived from seed.
func Pattern(seed byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i*7)
	}
	return out
}
