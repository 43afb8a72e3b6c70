// Package compress provides optional outer compression for .modsum
// files, applied after the record stream and checksum trailer are
// already framed. Compression is opt-in and orthogonal to the format:
// a consumer that does not ask for it reads the same bytes serialize
// produces.
package compress

import "fmt"

// Codec compresses and decompresses whole file payloads.
type Codec interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var registry = map[string]Codec{}

func register(c Codec) {
	registry[c.Name()] = c
}

// ByName looks up a codec by its registered name. The empty string and
// "none" both resolve to the identity codec.
func ByName(name string) (Codec, error) {
	if name == "" || name == "none" {
		return noneCodec{}, nil
	}
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown compression codec %q", name)
	}
	return c, nil
}

// Names returns every registered codec name, "none" included.
func Names() []string {
	names := []string{"none"}
	for name := range registry {
		names = append(names, name)
	}
	return names
}

type noneCodec struct{}

func (noneCodec) Name() string                        { return "none" }
func (noneCodec) Compress(data []byte) ([]byte, error) { return data, nil }
func (noneCodec) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
