package api

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"matryoshka/internal/schema"
)

// State держит замороженный результат последнего прогона. Set целиком
// замещает результат: хэндлеры всегда видят либо старый, либо новый прогон,
// никогда смесь.
type State struct {
	mu      sync.Mutex
	res     *schema.Result
	entropy io.Reader
}

func NewState(res *schema.Result) *State {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &State{
		res:     res,
		entropy: ulid.Monotonic(src, 0),
	}
}

func (s *State) Get() *schema.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.res
}

func (s *State) Set(res *schema.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.res = res
}

func (s *State) NewRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}
