package sealsign

import (
	"crypto"
	_ "crypto/sha256" // registra SHA-256 para crypto.Hash
	_ "crypto/sha512" // registra SHA-384 y SHA-512
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/jhoicas/sealsign-pades/pkg/pades"
)

// DefaultHash algoritmo de digest por defecto.
const DefaultHash = crypto.SHA256

// Digest es un digest ya calculado por el anfitrión.
type Digest []byte

// Digest implementa pades.DigestSource.
func (d Digest) Digest() ([]byte, error) {
	if len(d) == 0 {
		return nil, fmt.Errorf("%w: digest vacío", ErrInvalidInput)
	}
	return []byte(d), nil
}

// FileDigest calcula el digest de un archivo completo (plantilla temporal de firma).
type FileDigest struct {
	Path string
	Hash crypto.Hash // 0 = SHA-256
}

// Digest implementa pades.DigestSource.
func (f FileDigest) Digest() ([]byte, error) {
	h, err := newHash(f.Hash)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: no se puede leer la plantilla de firma %q: %v", ErrInvalidInput, f.Path, err)
	}
	defer file.Close()

	if _, err := io.Copy(h, file); err != nil {
		return nil, fmt.Errorf("%w: leer %q: %v", ErrInvalidInput, f.Path, err)
	}
	return h.Sum(nil), nil
}

// ByteRangeDigest calcula el digest sobre los segmentos /ByteRange de un PDF preparado:
// pares (offset, longitud) que excluyen el placeholder /Contents.
type ByteRangeDigest struct {
	Path      string
	ByteRange []int64
	Hash      crypto.Hash // 0 = SHA-256
}

// Digest implementa pades.DigestSource.
func (b ByteRangeDigest) Digest() ([]byte, error) {
	if len(b.ByteRange) == 0 || len(b.ByteRange)%2 != 0 {
		return nil, fmt.Errorf("%w: /ByteRange debe tener pares offset/longitud", ErrInvalidInput)
	}
	h, err := newHash(b.Hash)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(b.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: no se puede leer el documento %q: %v", ErrInvalidInput, b.Path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %q: %v", ErrInvalidInput, b.Path, err)
	}
	size := info.Size()

	for i := 0; i < len(b.ByteRange); i += 2 {
		off, n := b.ByteRange[i], b.ByteRange[i+1]
		if off < 0 || n < 0 || off > size || n > size-off {
			return nil, fmt.Errorf("%w: segmento [%d,%d] fuera del archivo (%d bytes)", ErrInvalidInput, off, n, size)
		}
		if _, err := io.Copy(h, io.NewSectionReader(file, off, n)); err != nil {
			return nil, fmt.Errorf("%w: leer segmento [%d,%d]: %v", ErrInvalidInput, off, n, err)
		}
	}
	return h.Sum(nil), nil
}

func newHash(alg crypto.Hash) (hash.Hash, error) {
	if alg == 0 {
		alg = DefaultHash
	}
	switch alg {
	case crypto.SHA256, crypto.SHA384, crypto.SHA512:
		return alg.New(), nil
	default:
		return nil, fmt.Errorf("%w: algoritmo de digest no soportado %v", ErrInvalidInput, alg)
	}
}

var (
	_ pades.DigestSource = Digest(nil)
	_ pades.DigestSource = FileDigest{}
	_ pades.DigestSource = ByteRangeDigest{}
)
