package objgraph

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Encode marshals a node tree with the given codec.
func Encode(c Codec, n *Node) ([]byte, error) {
	data, err := c.Marshal(n)
	if err != nil {
		return nil, newCodecError(ErrMarshal, err)
	}
	return data, nil
}

// Decode unmarshals a node tree previously produced by Encode.
func Decode(c Codec, data []byte) (*Node, error) {
	var n Node
	if err := c.Unmarshal(data, &n); err != nil {
		return nil, newCodecError(ErrUnmarshal, err)
	}
	return &n, nil
}
