package cache

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
)

type CacheEntry[T any] struct {
	Data      T         `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
}

type CacheService[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T) error
	GenerateKey(params ...any) (string, error)
}

// FileCache stores one JSON file per key under dir. Entries whose checksum
// no longer matches their data are treated as misses.
type FileCache[T any] struct {
	cacheDir string
}

func NewFileCache[T any](dir, subDir string) *FileCache[T] {
	return &FileCache[T]{
		cacheDir: filepath.Join(dir, subDir),
	}
}

// GenerateKey hashes the JSON encoding of params, so structs and slices
// key by content. A param that cannot be encoded is an error; callers must
// not cache under a key that is not a pure function of its inputs.
func (fc *FileCache[T]) GenerateKey(params ...any) (string, error) {
	h := sha1.New()
	for i, param := range params {
		data, err := json.Marshal(param)
		if err != nil {
			return "", eris.Wrapf(err, "cache: encode key param %d", i)
		}
		h.Write(data)
		h.Write([]byte{'_'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (fc *FileCache[T]) Get(key string) (T, bool) {
	var zero T
	data, err := os.ReadFile(fc.path(key))
	if err != nil {
		return zero, false
	}

	var entry CacheEntry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		return zero, false
	}

	if entry.Checksum != fc.calculateChecksum(entry.Data) {
		return zero, false
	}

	return entry.Data, true
}

func (fc *FileCache[T]) Set(key string, data T) error {
	if err := os.MkdirAll(fc.cacheDir, 0755); err != nil {
		return eris.Wrap(err, "cache: create directory")
	}

	entry := CacheEntry[T]{
		Data:      data,
		CreatedAt: time.Now(),
		Checksum:  fc.calculateChecksum(data),
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "cache: marshal entry")
	}

	cacheFile := fc.path(key)
	tmpFile := cacheFile + ".tmp"

	if err := os.WriteFile(tmpFile, jsonData, 0644); err != nil {
		return eris.Wrap(err, "cache: write temp file")
	}

	if err := os.Rename(tmpFile, cacheFile); err != nil {
		os.Remove(tmpFile)
		return eris.Wrap(err, "cache: rename temp file")
	}

	return nil
}

func (fc *FileCache[T]) path(key string) string {
	return filepath.Join(fc.cacheDir, key+".json")
}

func (fc *FileCache[T]) calculateChecksum(data T) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return hex.EncodeToString(hash[:])
}
