package archive

// NoOpCodec bypasses compression. Useful as a baseline and for data
// that's already compressed upstream.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

// NewNoOpCodec returns a codec that returns its input unchanged.
func NewNoOpCodec() NoOpCodec { return NoOpCodec{} }

func (NoOpCodec) Compress(data []byte) ([]byte, error) { return data, nil }

func (NoOpCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
