// Package codec provides sample encoders for compressed sound banks.
//
// Every encoder quantizes a mono float buffer back to 16-bit PCM and wraps
// it in a self-framed stream: the stream carries its own header, trailer
// and checksum, so a stored sample can be decoded without any side
// information. Detect identifies the stream format from its magic bytes.
//
// Example:
//
//	enc, err := codec.New(codec.KindZstd)
//	if err != nil {
//		return err
//	}
//	blob, err := enc.Encode(buf, 0.5)
package codec
