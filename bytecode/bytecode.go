// Package bytecode is the portable binary codec for a compiled module:
// a fixed magic and version header followed by a recursive,
// length-prefixed, tag-discriminated module layout.
package bytecode

import (
	"os"

	"github.com/wudi/imp/ir"
)

// Magic is the 4-byte file header identifying an imp bytecode file.
var Magic = [4]byte{'I', 'M', 'P', 'C'}

// Version is the current bytecode format version.
const Version uint16 = 1

// Encode serializes m to its portable byte form.
func Encode(m *ir.CompiledModule) ([]byte, error) {
	w := &writer{}
	w.bytes(Magic[:])
	w.u16(Version)
	if err := w.module(m); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// Decode parses a module from its portable byte form, validating the
// header, rejecting any trailing bytes, and failing explicitly on
// truncation, bad tags, or invalid UTF-8.
func Decode(data []byte) (*ir.CompiledModule, error) {
	if len(data) < 6 {
		return nil, eof("bytecode header")
	}
	if data[0] != Magic[0] || data[1] != Magic[1] || data[2] != Magic[2] || data[3] != Magic[3] {
		return nil, &Error{Kind: ErrInvalidMagic}
	}

	r := &reader{data: data, pos: 4}
	version, err := r.u16("bytecode version")
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, &Error{Kind: ErrUnsupportedVersion, Got: version, Want: Version}
	}

	mod, err := r.module()
	if err != nil {
		return nil, err
	}
	if r.pos != len(data) {
		return nil, &Error{Kind: ErrTrailingBytes}
	}
	return mod, nil
}

// EncodeToPath encodes m and writes it to path.
func EncodeToPath(m *ir.CompiledModule, path string) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &Error{Kind: ErrIO, Cause: err}
	}
	return nil
}

// DecodeFromPath reads and decodes the module at path.
func DecodeFromPath(path string) (*ir.CompiledModule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: ErrIO, Cause: err}
	}
	return Decode(data)
}
