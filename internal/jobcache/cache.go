package jobcache

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// tokenLength keeps tokens short enough to embed in callback payloads.
const tokenLength = 16

// ErrNotFound is returned when a token is absent from the cache, whether it
// was never staged, already evicted, or lazily expired.
var ErrNotFound = errors.New("pending job not found")

// Job is a staged voice artifact awaiting a processing-mode selection.
// The temporary files it references are exclusively owned by this job until
// it is evicted.
type Job struct {
	Token         string
	UserID        int64
	ChatID        int64
	MessageID     int
	OriginalPath  string
	ConvertedPath string
	Duration      int
	CreatedAt     time.Time
}

// Cache holds in-flight jobs between voice upload and mode selection. It is
// pure runtime state: entries do not survive a restart, and an entry whose
// selection never arrives is reclaimed lazily on the next Take after its TTL.
type Cache struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// New creates a Cache whose entries expire lazily after ttl. A non-positive
// ttl disables expiry.
func New(ttl time.Duration, logger zerolog.Logger) *Cache {
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		// crypto/rand never fails on supported platforms; treat it as fatal.
		panic(fmt.Sprintf("jobcache: reading random secret: %v", err))
	}
	return &Cache{
		jobs:   make(map[string]*Job),
		secret: secret,
		ttl:    ttl,
		logger: logger.With().Str("service", "JobCache").Logger(),
		now:    time.Now,
	}
}

// Token derives the short opaque key for a (user, source file) pair. The
// derivation is deterministic within one process, and the process-local
// secret keeps one user's tokens unguessable by another.
func (c *Cache) Token(userID int64, sourceID string) string {
	h := sha256.New()
	h.Write(c.secret)
	fmt.Fprintf(h, "%d:%s", userID, sourceID)
	return hex.EncodeToString(h.Sum(nil))[:tokenLength]
}

// Stage stores the job under its derived token and returns the token.
// Re-staging the same (user, source) pair silently replaces the previous
// entry; the replaced entry's files are released if the new job owns
// different paths.
func (c *Cache) Stage(userID int64, sourceID string, job Job) string {
	token := c.Token(userID, sourceID)
	job.Token = token
	job.UserID = userID
	if job.CreatedAt.IsZero() {
		job.CreatedAt = c.now()
	}

	c.mu.Lock()
	old, existed := c.jobs[token]
	c.jobs[token] = &job
	c.mu.Unlock()

	if existed && old.ConvertedPath != job.ConvertedPath {
		c.releaseFiles(old)
	}
	return token
}

// Take looks up a job without removing it. Removal stays the caller's
// responsibility so temporary-file cleanup happens exactly once, on Evict,
// whether processing succeeds or fails.
func (c *Cache) Take(token string) (*Job, error) {
	c.mu.Lock()
	job, ok := c.jobs[token]
	if ok && c.ttl > 0 && c.now().Sub(job.CreatedAt) > c.ttl {
		delete(c.jobs, token)
		c.mu.Unlock()
		c.releaseFiles(job)
		return nil, ErrNotFound
	}
	c.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}

// Evict removes the entry and deletes its backing files. Evicting an absent
// token is a no-op.
func (c *Cache) Evict(token string) {
	c.mu.Lock()
	job, ok := c.jobs[token]
	delete(c.jobs, token)
	c.mu.Unlock()
	if ok {
		c.releaseFiles(job)
	}
}

// Len reports the number of staged jobs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.jobs)
}

func (c *Cache) releaseFiles(job *Job) {
	for _, path := range []string{job.OriginalPath, job.ConvertedPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove job artifact")
		}
	}
}
