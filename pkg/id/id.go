package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a random ULID string stamped with the current time.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	return mustULID(stamp(time.Now()), mono)
}

// Sequence hands out ULIDs from a seeded entropy source, so the same seed and
// the same series of timestamps always yield the same ids. Ids stamped with
// the same millisecond still sort in issue order.
type Sequence struct {
	mu      sync.Mutex
	entropy io.Reader
}

func NewSequence(seed int64) *Sequence {
	return &Sequence{entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

// Next returns the next id stamped with t. Times before the Unix epoch are
// stamped as the epoch.
func (s *Sequence) Next(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return mustULID(stamp(t), s.entropy)
}

// Time extracts the timestamp from a ULID string.
func Time(s string) (time.Time, error) {
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}

func stamp(t time.Time) uint64 {
	if t.Before(time.Unix(0, 0)) {
		return 0
	}
	return ulid.Timestamp(t)
}

func mustULID(ms uint64, entropy io.Reader) string {
	id, err := ulid.New(ms, entropy)
	if err != nil {
		// only when entropy fails or the monotonic counter overflows
		panic(err)
	}
	return id.String()
}
