package server

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jpalmerr/healthboard/internal/poller"
)

// errUnknownViewer is returned for visibility updates from a page that has
// no open event stream.
var errUnknownViewer = errors.New("unknown viewer")

type viewer struct {
	streams int
	visible bool
}

// viewerSet tracks dashboard pages attached to the event streams and
// whether each one is visible.
//
// Polling is paused once every attached page is hidden and resumed when one
// becomes visible again or the last page goes away. Only a pause made here
// is undone here; an operator pause through /board/pause stays in place.
type viewerSet struct {
	controller Controller
	logger     *slog.Logger

	mu      sync.Mutex
	viewers map[string]*viewer
	paused  bool
}

func newViewerSet(controller Controller, logger *slog.Logger) *viewerSet {
	return &viewerSet{
		controller: controller,
		logger:     logger,
		viewers:    make(map[string]*viewer),
	}
}

// join attaches one stream for id and returns the id it was recorded under.
// Streams without an id are anonymous and always count as visible.
func (v *viewerSet) join(id string, visible bool) string {
	if id == "" {
		id, visible = uuid.NewString(), true
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	vw, ok := v.viewers[id]
	if !ok {
		vw = &viewer{}
		v.viewers[id] = vw
	}
	vw.streams++
	// the newest stream reports the page's current visibility
	vw.visible = visible
	v.reconcileLocked()
	return id
}

// leave detaches one stream for id. A page reconnecting its event stream
// may join again before the old stream leaves.
func (v *viewerSet) leave(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	vw, ok := v.viewers[id]
	if !ok {
		return
	}
	vw.streams--
	if vw.streams <= 0 {
		delete(v.viewers, id)
	}
	v.reconcileLocked()
}

func (v *viewerSet) setVisible(id string, visible bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	vw, ok := v.viewers[id]
	if !ok {
		return errUnknownViewer
	}
	vw.visible = visible
	v.reconcileLocked()
	return nil
}

func (v *viewerSet) counts() (total, visible int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, vw := range v.viewers {
		total++
		if vw.visible {
			visible++
		}
	}
	return total, visible
}

func (v *viewerSet) reconcileLocked() {
	if v.controller == nil {
		return
	}

	anyVisible := false
	for _, vw := range v.viewers {
		if vw.visible {
			anyVisible = true
			break
		}
	}
	watched := anyVisible || len(v.viewers) == 0

	switch {
	case !watched && !v.paused && v.controller.State() == poller.StateRunning:
		if err := v.controller.Pause(); err != nil {
			v.logger.Warn("failed to pause for hidden viewers", "error", err)
			return
		}
		v.paused = true
		v.logger.Info("polling paused, no visible viewers", "viewers", len(v.viewers))

	case watched && v.paused:
		v.paused = false
		if v.controller.State() != poller.StatePaused {
			// resumed or stopped elsewhere in the meantime
			return
		}
		if err := v.controller.Resume(); err != nil {
			v.logger.Warn("failed to resume for visible viewer", "error", err)
			return
		}
		v.logger.Info("polling resumed for visible viewer")
	}
}
