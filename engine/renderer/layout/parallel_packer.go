package layout

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-rings/common"
)

// minChunk is the smallest slot range handed to a worker. Smaller buffers are packed inline.
const minChunk = 256

// Packer fills packed buffers. Implementations must produce the same bytes as PackInto.
type Packer interface {
	// PackInto fills the first count slots of dst from source.
	//
	// Parameters:
	//   - dst: destination, at least count*Stride() bytes
	//   - s: the slot layout
	//   - count: number of slots
	//   - source: supplies field values, called concurrently for distinct slots
	//
	// Returns:
	//   - error: as PackInto
	PackInto(dst []byte, s Schema, count int, source FieldSource) error

	// Release stops any background workers. Later PackInto calls pack on the calling goroutine.
	Release()
}

// serialPacker packs on the calling goroutine.
type serialPacker struct{}

// SerialPacker is the default Packer.
var SerialPacker Packer = serialPacker{}

func (serialPacker) PackInto(dst []byte, s Schema, count int, source FieldSource) error {
	return PackInto(dst, s, count, source)
}

func (serialPacker) Release() {}

// parallelPacker splits slot ranges across a reusable worker pool.
type parallelPacker struct {
	workers int
	pool    worker.DynamicWorkerPool
	nextID  int
}

var _ Packer = &parallelPacker{}

// NewParallelPacker creates a Packer that splits large buffers into contiguous slot ranges packed
// by a pool of workers. Each range writes a disjoint part of dst, so the output is identical to
// the serial packer. PackInto blocks until every range is done and must not be called concurrently.
// Release stops the workers once the packer is no longer needed.
//
// Parameters:
//   - workers: maximum number of concurrent workers, at least 1
//
// Returns:
//   - Packer: the parallel packer
//   - error: ErrInvalidParameter if workers < 1
func NewParallelPacker(workers int) (Packer, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: pack workers must be >= 1, got %d", common.ErrInvalidParameter, workers)
	}
	return &parallelPacker{
		workers: workers,
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
	}, nil
}

func (p *parallelPacker) PackInto(dst []byte, s Schema, count int, source FieldSource) error {
	if uint64(len(dst)) < s.Size(count) {
		return fmt.Errorf("%w: destination holds %d bytes, %d slots of %q need %d",
			common.ErrInvalidParameter, len(dst), count, s.Name(), s.Size(count))
	}
	chunks := min(p.workers, count/minChunk)
	if chunks <= 1 || p.pool == nil {
		return PackInto(dst, s, count, source)
	}

	per := (count + chunks - 1) / chunks
	errs := make([]error, chunks)
	// The WaitGroup is the per-call barrier; the pool's own Wait only returns once idle workers exit.
	var wg sync.WaitGroup
	for c := range chunks {
		from := c * per
		to := min(from+per, count)
		wg.Add(1)
		id := p.nextID
		p.nextID++
		p.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				errs[c] = packRange(dst, s, from, to, source)
				return nil, errs[c]
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (p *parallelPacker) Release() {
	if p.pool == nil {
		return
	}
	p.pool.Stop()
	p.pool = nil
}
