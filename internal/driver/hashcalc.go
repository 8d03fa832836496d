package driver

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"contractmeta/internal/metadata"
	"contractmeta/internal/version"
)

// Digest is a blake2b-256 hash of an input file or a generation job.
type Digest [32]byte

// DigestOf hashes data.
func DigestOf(data []byte) Digest { return blake2b.Sum256(data) }

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// combineDigest: H(content || part1 || part2 ...). Every part is length
// prefixed so that adjacent parts cannot be shifted into each other.
func combineDigest(content Digest, parts ...[]byte) Digest {
	h, _ := blake2b.New256(nil)
	_, _ = h.Write(content[:])
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		_, _ = h.Write(n[:])
		_, _ = h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// jobDigest keys the disk cache: the model and code contents, the contract
// name, the tool version and every setting that changes the encoded bytes.
// A custom cfg.Selector is not part of the key.
func jobDigest(modelHash, codeHash Digest, contract string, cfg metadata.Config, enc metadata.EncodeOptions) Digest {
	flags := []byte{byte(enc.Format), boolByte(enc.Pretty), boolByte(cfg.EmbedCode)}
	parts := [][]byte{
		codeHash[:],
		[]byte(contract),
		[]byte(version.Version),
		flags,
		[]byte(cfg.LanguageName),
		[]byte(cfg.LanguageVersion),
		[]byte(cfg.CompilerName),
		[]byte(cfg.CompilerVersion),
		[]byte(cfg.ContractVersion),
		binary.BigEndian.AppendUint64(nil, uint64(int64(cfg.AddressLength))),
		binary.BigEndian.AppendUint64(nil, uint64(int64(cfg.SelectorWidth))),
		[]byte(cfg.Target.Triple),
	}
	for _, a := range cfg.Authors {
		parts = append(parts, []byte(a))
	}
	return combineDigest(modelHash, parts...)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
