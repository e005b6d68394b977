package autoplay

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"
)

// Frame is one broadcast snapshot of the self-play game.
type Frame struct {
	Kind      string `json:"kind"`
	FEN       string `json:"fen"`
	LastMove  string `json:"lastMove,omitempty"`
	MoveCount int    `json:"moveCount"`
	Turn      string `json:"turn"`
	Status    string `json:"status,omitempty"`
	Over      bool   `json:"over"`
}

// Driver plays fully random legal moves against itself on a fixed interval
// and broadcasts each resulting position to its watchers. One timer chain,
// one pending step at a time; once the game is over no further step is
// scheduled.
type Driver struct {
	interval time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	game     *nchess.Game
	rand     *rand.Rand
	watchers map[chan Frame]struct{}
	running  bool
}

func NewDriver(interval time.Duration, logger *zap.Logger) *Driver {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		interval: interval,
		logger:   logger,
		game:     nchess.NewGame(),
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		watchers: make(map[chan Frame]struct{}),
	}
}

// SetRandSeed makes move selection deterministic. Test hook.
func (d *Driver) SetRandSeed(seed int64) {
	d.mu.Lock()
	d.rand = rand.New(rand.NewSource(seed))
	d.mu.Unlock()
}

// Run drives the game until it ends or ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.broadcast(d.snapshot())

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.interval):
		}
		alreadyOver, err := d.Step()
		if err != nil {
			d.logger.Warn("autoplay step failed", zap.Error(err))
			return
		}
		if alreadyOver {
			d.logger.Info("autoplay game finished",
				zap.String("outcome", d.Outcome()),
				zap.Int("moves", d.MoveCount()),
			)
			return
		}
	}
}

// Step applies exactly one uniformly random legal move and broadcasts the
// new frame. It reports whether the game was already over at invocation
// start, in which case no move is applied and no further step should be
// scheduled.
func (d *Driver) Step() (alreadyOver bool, err error) {
	d.mu.Lock()
	if d.game.Outcome() != nchess.NoOutcome {
		d.mu.Unlock()
		return true, nil
	}
	moves := d.game.ValidMoves()
	if len(moves) == 0 {
		d.mu.Unlock()
		return true, nil
	}
	mv := moves[d.rand.Intn(len(moves))]
	san := nchess.AlgebraicNotation{}.Encode(d.game.Position(), &mv)
	if moveErr := d.game.Move(&mv, nil); moveErr != nil {
		d.mu.Unlock()
		return false, fmt.Errorf("apply random move %s: %w", san, moveErr)
	}
	frame := d.frameLocked(san)
	d.mu.Unlock()

	d.broadcast(frame)
	return false, nil
}

// Reset starts a fresh game.
func (d *Driver) Reset() {
	d.mu.Lock()
	d.game = nchess.NewGame()
	frame := d.frameLocked("")
	d.mu.Unlock()
	d.broadcast(frame)
}

func (d *Driver) MoveCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.game.Moves())
}

func (d *Driver) Outcome() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.game.Outcome() == nchess.NoOutcome {
		return ""
	}
	return fmt.Sprintf("%s by %s", d.game.Outcome().String(), d.game.Method().String())
}

func (d *Driver) snapshot() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameLocked("")
}

func (d *Driver) frameLocked(lastSAN string) Frame {
	status := ""
	over := d.game.Outcome() != nchess.NoOutcome
	if over {
		status = fmt.Sprintf("%s by %s", d.game.Outcome().String(), d.game.Method().String())
	}
	turn := "white"
	if d.game.Position().Turn() == nchess.Black {
		turn = "black"
	}
	return Frame{
		Kind:      "frame",
		FEN:       d.game.FEN(),
		LastMove:  lastSAN,
		MoveCount: len(d.game.Moves()),
		Turn:      turn,
		Status:    status,
		Over:      over,
	}
}

// AddWatcher subscribes a channel to frames. Slow watchers are skipped, not
// waited on.
func (d *Driver) AddWatcher(ch chan Frame) {
	d.mu.Lock()
	d.watchers[ch] = struct{}{}
	d.mu.Unlock()
}

func (d *Driver) RemoveWatcher(ch chan Frame) {
	d.mu.Lock()
	delete(d.watchers, ch)
	d.mu.Unlock()
}

func (d *Driver) broadcast(frame Frame) {
	d.mu.Lock()
	for ch := range d.watchers {
		select {
		case ch <- frame:
		default:
		}
	}
	d.mu.Unlock()
}
