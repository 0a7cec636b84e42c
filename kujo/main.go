// Package kujo serves stored tracks over HTTP, and streams changes to them as server-sent events.
package kujo

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"
	"github.com/rs/cors"
	"golang.org/x/exp/slices"
	"nyiyui.ca/hato/senro/config"
	"nyiyui.ca/hato/senro/layout"
	"nyiyui.ca/hato/senro/notify"
	"nyiyui.ca/hato/senro/parser"
	"nyiyui.ca/hato/senro/store"
)

//go:embed index.html
var templates embed.FS

// ChangesStream is the SSE stream ID for Change events.
const ChangesStream = "changes"

const maxBodySize = 1 << 20

type Op string

const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
	OpDelete  Op = "delete"
)

// Change describes a successful modification of a stored track.
type Change struct {
	Track uuid.UUID `json:"track"`
	Op    Op        `json:"op"`
	// Section is set for OpAdd and OpRemove.
	Section string `json:"section,omitempty"`
}

type Server struct {
	st       *store.Store
	changes  *notify.Multiplexer[Change]
	changeCh chan Change
	done     chan struct{}
	s        *sse.Server
	sm       *http.ServeMux
	handler  http.Handler
	t        *template.Template
}

func NewServer(st *store.Store, conf config.Config) *Server {
	s := &Server{
		st:       st,
		changes:  notify.NewMultiplexer[Change]("kujo changes"),
		changeCh: make(chan Change, 16),
		done:     make(chan struct{}),
		s:        sse.New(),
		sm:       http.NewServeMux(),
	}
	s.s.AutoReplay = false
	s.t = template.Must(template.New("index").Funcs(sprig.FuncMap()).ParseFS(templates, "*.html"))
	s.setup()
	s.handler = cors.New(cors.Options{
		AllowedOrigins: conf.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}).Handler(s.sm)
	s.s.CreateStream(ChangesStream)
	s.changes.Subscribe("kujo sse", s.changeCh)
	go s.forward()
	return s
}

// Changes returns the multiplexer that every successful modification is sent to.
func (s *Server) Changes() *notify.Multiplexer[Change] {
	return s.changes
}

func (s *Server) setup() {
	s.sm.HandleFunc("GET /{$}", s.handleIndex)
	s.sm.HandleFunc("GET /tracks/{id}", s.handleGet)
	s.sm.HandleFunc("PUT /tracks/{id}", s.handleReplace)
	s.sm.HandleFunc("DELETE /tracks/{id}", s.handleDelete)
	s.sm.HandleFunc("POST /tracks/{id}/sections", s.handleAddSection)
	s.sm.HandleFunc("DELETE /tracks/{id}/sections", s.handleRemoveSection)
	s.sm.HandleFunc("GET /tracks/{id}/at", s.handleAt)
	s.sm.HandleFunc("GET /tracks/{id}/junctions", s.handleJunctions)
	s.sm.Handle("GET /events", s.s)
}

func (s *Server) forward() {
	defer close(s.done)
	for c := range s.changeCh {
		data, err := json.Marshal(c)
		if err != nil {
			log.Printf("kujo: marshal json: %s", err)
			continue
		}
		s.s.TryPublish(ChangesStream, &sse.Event{
			Data: data,
		})
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("kujo: listening on %s", addr)
	return hs.ListenAndServe()
}

// Close stops forwarding changes and closes all SSE streams.
func (s *Server) Close() {
	s.changes.Unsubscribe(s.changeCh)
	close(s.changeCh)
	<-s.done
	s.s.Close()
}

func statusOf(err error) int {
	var se *parser.SyntaxError
	var mbe *http.MaxBytesError
	switch {
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, layout.ErrInvalidTrack):
		return http.StatusConflict
	case errors.Is(err, layout.ErrInvalidArgument), errors.Is(err, layout.ErrAbsent), errors.As(err, &se):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		log.Printf("kujo: %s %s: %s", r.Method, r.URL.Path, err)
	}
	http.Error(w, err.Error(), code)
}

func trackID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, fmt.Sprintf("track id: %s", err), http.StatusBadRequest)
		return uuid.UUID{}, false
	}
	return id, true
}

func readBody(w http.ResponseWriter, r *http.Request) (string, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, text)
}

type trackSummary struct {
	ID        string
	Sections  []string
	Junctions []string
}

func summarise(id uuid.UUID, t *layout.Track) trackSummary {
	ts := trackSummary{ID: id.String()}
	for _, sec := range t.Sections() {
		ts.Sections = append(ts.Sections, sec.String())
	}
	ts.Junctions = junctionIDs(t)
	return ts
}

func junctionIDs(t *layout.Track) []string {
	var ids []string
	t.Junctions().Each(func(j layout.Junction) bool {
		ids = append(ids, j.ID())
		return false
	})
	slices.Sort(ids)
	return ids
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ids, err := s.st.List()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	tracks := make([]trackSummary, 0, len(ids))
	for _, id := range ids {
		t, err := s.st.Load(id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		tracks = append(tracks, summarise(id, t))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	err = s.t.ExecuteTemplate(w, "index", map[string]interface{}{
		"tracks": tracks,
		"now":    time.Now().Format("15:04:05"),
	})
	if err != nil {
		log.Printf("kujo: index: %s", err)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := trackID(w, r)
	if !ok {
		return
	}
	t, err := s.st.Load(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, t.String())
}

func (s *Server) handleReplace(w http.ResponseWriter, r *http.Request) {
	id, ok := trackID(w, r)
	if !ok {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := parser.ParseTrack(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	err = s.st.Save(id, t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.changes.Send(Change{Track: id, Op: OpReplace})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := trackID(w, r)
	if !ok {
		return
	}
	err := s.st.Delete(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.changes.Send(Change{Track: id, Op: OpDelete})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) modifySection(w http.ResponseWriter, r *http.Request, op Op) {
	id, ok := trackID(w, r)
	if !ok {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sec, err := parser.ParseSection(strings.TrimSpace(body))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var changed bool
	err = s.st.Update(id, op == OpAdd, func(t *layout.Track) error {
		before := t.Contains(sec)
		switch op {
		case OpAdd:
			if err := t.AddSection(sec); err != nil {
				return err
			}
		case OpRemove:
			t.RemoveSection(sec)
		default:
			panic("unreachable")
		}
		changed = before != t.Contains(sec)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if changed {
		s.changes.Send(Change{Track: id, Op: op, Section: sec.String()})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	s.modifySection(w, r, OpAdd)
}

func (s *Server) handleRemoveSection(w http.ResponseWriter, r *http.Request) {
	s.modifySection(w, r, OpRemove)
}

func (s *Server) handleAt(w http.ResponseWriter, r *http.Request) {
	id, ok := trackID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	if !q.Has("junction") {
		http.Error(w, "junction is required", http.StatusBadRequest)
		return
	}
	b, err := layout.ParseBranch(q.Get("branch"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t, err := s.st.Load(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sec, ok := t.SectionAt(layout.NewJunction(q.Get("junction")), b)
	if !ok {
		http.Error(w, "no section", http.StatusNotFound)
		return
	}
	writeText(w, sec.String())
}

func (s *Server) handleJunctions(w http.ResponseWriter, r *http.Request) {
	id, ok := trackID(w, r)
	if !ok {
		return
	}
	t, err := s.st.Load(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, strings.Join(junctionIDs(t), "\n"))
}
