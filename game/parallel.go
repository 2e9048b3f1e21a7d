package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/ItBeCharlie/quadtree-vis/components"
	"github.com/ItBeCharlie/quadtree-vis/systems"
)

// parallelThreshold is the minimum point count to use parallel
// classification. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 256

// classifyJob captures read-only state for one point so workers never
// touch live components.
type classifyJob struct {
	Entity ecs.Entity
	X, Y   float32
	R      float32
}

// workChunk represents a range of jobs for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel overlap classification.
type parallelState struct {
	jobs       []classifyJob
	results    []bool
	scratches  [][]systems.Item
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState() *parallelState {
	numWorkers := runtime.GOMAXPROCS(0)
	scratches := make([][]systems.Item, numWorkers)
	for i := range scratches {
		scratches[i] = make([]systems.Item, 0, 64)
	}
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  scratches,
		jobs:       make([]classifyJob, 0, 512),
		results:    make([]bool, 0, 512),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.classifyChunk(chunk.start, chunk.end, workerID)
			p.doneChan <- struct{}{}
		}
	}
}

// classifyOverlapsParallel snapshots every point, classifies the chunks
// on the worker pool against the freshly built (and now immutable) index,
// then applies the results single-threaded.
func (g *Game) classifyOverlapsParallel() {
	// Phase A: build snapshots (single-threaded)
	g.par.jobs = g.par.jobs[:0]

	query := g.pointFilter.Query()
	for query.Next() {
		pos, body, _ := query.Get()
		g.par.jobs = append(g.par.jobs, classifyJob{
			Entity: query.Entity(),
			X:      pos.X,
			Y:      pos.Y,
			R:      g.queryMul * body.Radius,
		})
	}

	n := len(g.par.jobs)
	if n == 0 {
		g.overlapCount = 0
		return
	}

	if cap(g.par.results) < n {
		g.par.results = make([]bool, n)
	}
	g.par.results = g.par.results[:n]

	// Phase B: query the index from all workers
	if !g.par.running {
		g.par.startWorkers(g)
	}

	numWorkers := g.par.numWorkers
	chunkSize := (n + numWorkers - 1) / numWorkers

	chunksDispatched := 0
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		g.par.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-g.par.doneChan
	}

	// Phase C: apply results (single-threaded)
	overlapping := 0
	for i := range g.par.jobs {
		overlap := g.overlapMap.Get(g.par.jobs[i].Entity)
		if overlap == nil {
			continue
		}
		if g.par.results[i] {
			overlap.State = components.StateOverlapping
			overlapping++
		} else {
			overlap.State = components.StateNormal
		}
	}
	g.overlapCount = overlapping
}

// classifyChunk processes a range of jobs for a single worker. The index
// is read-only during this phase.
func (g *Game) classifyChunk(i0, i1, workerID int) {
	scratch := g.par.scratches[workerID]

	for i := i0; i < i1; i++ {
		job := &g.par.jobs[i]
		scratch = g.qt.QueryCircleInto(scratch[:0], systems.Circle{
			X: job.X,
			Y: job.Y,
			R: job.R,
		})
		// The query finds the point itself, so "more than one" means at
		// least one neighbor.
		g.par.results[i] = len(scratch) > 1
	}

	g.par.scratches[workerID] = scratch
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.par != nil {
		g.par.stopWorkers()
	}
}
