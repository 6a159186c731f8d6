package checksum

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of digests kept by NewCalculator
const DefaultCacheSize = 8192

// Digest holds the content hashes of one file
type Digest struct {
	SHA256 string
	SHA1   string
}

// Service computes content hashes for files
type Service interface {
	Compute(path string) (Digest, error)
}

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

// Calculator computes SHA-256 and SHA-1 in a single read. Results are cached
// by path, size and modification time so files inspected in several passes
// are only read once.
type Calculator struct {
	cache *lru.Cache[cacheKey, Digest]
}

// NewCalculator creates a calculator with the given cache size
func NewCalculator(cacheSize int) (*Calculator, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, Digest](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create checksum cache: %w", err)
	}
	return &Calculator{cache: cache}, nil
}

// Compute returns the digest of the file at path
func (c *Calculator) Compute(path string) (Digest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Digest{}, err
	}
	if info.IsDir() {
		return Digest{}, fmt.Errorf("cannot checksum directory %s", path)
	}

	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if d, ok := c.cache.Get(key); ok {
		return d, nil
	}

	d, err := computeFile(path)
	if err != nil {
		return Digest{}, err
	}
	c.cache.Add(key, d)
	return d, nil
}

// Len returns the number of cached digests
func (c *Calculator) Len() int {
	return c.cache.Len()
}

func computeFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	return ComputeReader(f)
}

// ComputeReader hashes everything read from r
func ComputeReader(r io.Reader) (Digest, error) {
	h256 := sha256.New()
	h1 := sha1.New()
	if _, err := io.Copy(io.MultiWriter(h256, h1), r); err != nil {
		return Digest{}, fmt.Errorf("failed to hash content: %w", err)
	}
	return Digest{
		SHA256: hex.EncodeToString(h256.Sum(nil)),
		SHA1:   hex.EncodeToString(h1.Sum(nil)),
	}, nil
}
