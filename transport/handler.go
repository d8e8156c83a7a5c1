package transport

import (
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/back2basic/linkcollector/logging"
	"github.com/back2basic/linkcollector/model"
)

// CounterSource provides the current counters of a local link by address.
type CounterSource interface {
	Counters(address string) (model.StatusEntry, bool)
}

// Handler answers batched stats requests on the peer side. Addresses the
// source does not know are left out of the reply.
type Handler struct {
	source CounterSource
	logger *zap.Logger
}

func NewHandler(source CounterSource, logger *zap.Logger) *Handler {
	return &Handler{source: source, logger: logging.OrNop(logger)}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.EscapedPath()
	i := strings.Index(path, model.AppSuffix)
	if i < 0 {
		http.NotFound(w, r)
		return
	}

	var reply model.Reply
	for _, c := range strings.Split(strings.Trim(path[i+len(model.AppSuffix):], "/"), "/") {
		if c == "" {
			continue
		}
		addr, err := url.PathUnescape(c)
		if err != nil {
			http.Error(w, "bad address component", http.StatusBadRequest)
			return
		}
		if e, ok := h.source.Counters(addr); ok {
			e.Address = addr
			reply.Links = append(reply.Links, e)
		}
	}

	payload, err := EncodeReply(reply)
	if err != nil {
		h.logger.Error("encode reply", zap.Error(err))
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(payload)
}

// StaticSource is an in-memory CounterSource.
type StaticSource struct {
	mu      sync.RWMutex
	entries map[string]model.StatusEntry
}

func NewStaticSource() *StaticSource {
	return &StaticSource{entries: make(map[string]model.StatusEntry)}
}

func (s *StaticSource) Set(e model.StatusEntry) {
	s.mu.Lock()
	s.entries[e.Address] = e
	s.mu.Unlock()
}

func (s *StaticSource) Counters(address string) (model.StatusEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[address]
	return e, ok
}
