package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/snakagawa/eigonews/internal/database"
	"github.com/snakagawa/eigonews/internal/news"
	"github.com/snakagawa/eigonews/internal/pipeline"
	"github.com/snakagawa/eigonews/internal/tts"
)

//go:embed templates/*.html
var templateFS embed.FS

var md = goldmark.New()

// Server is the HTTP surface: the JSON API the browser client talks to
// plus a small admin page over the history state.
type Server struct {
	svc   *pipeline.Service
	synth *tts.Synthesizer
	db    *database.DB
	pages map[string]*template.Template
	mux   *http.ServeMux
}

// New creates a new Server. synth and db may be nil; the corresponding
// endpoints then report unavailability instead of panicking.
func New(svc *pipeline.Service, synth *tts.Synthesizer, db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	pageNames := []string{"index.html", "article.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{svc: svc, synth: synth, db: db, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return withCORS(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/news/search", s.handleSearch)
	s.mux.HandleFunc("POST /api/news/process-article", s.handleProcessArticle)
	s.mux.HandleFunc("POST /api/news/translation", s.handleTranslation)
	s.mux.HandleFunc("POST /api/tts/generate", s.handleTTSGenerate)
	s.mux.HandleFunc("GET /audio/{file}", s.handleAudio)
	s.mux.HandleFunc("POST /api/admin/reset", s.handleReset)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /admin/article", s.handleAdminArticle)
}

type searchRequest struct {
	Level      string   `json:"level"`
	Categories []string `json:"categories"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Level == "" || len(req.Categories) == 0 {
		writeError(w, http.StatusBadRequest, "level and categories are required")
		return
	}

	result, err := s.svc.Search(r.Context(), req.Level, req.Categories)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"articles":  result.Articles,
		"count":     len(result.Articles),
		"shortfall": result.Shortfall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type processRequest struct {
	Article news.Article `json:"article"`
	Level   string       `json:"level"`
}

func (s *Server) handleProcessArticle(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Article.TitleJa == "" || req.Level == "" {
		writeError(w, http.StatusBadRequest, "article and level are required")
		return
	}

	processed, err := s.svc.ProcessArticle(r.Context(), req.Article, req.Level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := map[string]any{
		"success":   true,
		"article":   processed,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	// Pre-generate audio for the leveled body when TTS is available.
	if s.synth != nil && s.synth.IsConfigured() && processed.BodyEn != "" {
		audio, err := s.synth.Synthesize(r.Context(), processed.BodyEn, tts.DefaultVoice, news.Levels[req.Level].Speed)
		if err != nil {
			log.Printf("server: audio generation failed: %v", err)
		} else {
			resp["audioUrl"] = "/audio/" + audio.FileName
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type translationRequest struct {
	BodyEn string `json:"en_body"`
	Level  string `json:"level"`
}

func (s *Server) handleTranslation(w http.ResponseWriter, r *http.Request) {
	var req translationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BodyEn == "" || req.Level == "" {
		writeError(w, http.StatusBadRequest, "en_body and level are required")
		return
	}

	translation, err := s.svc.Translate(r.Context(), req.BodyEn, req.Level)
	if err != nil {
		log.Printf("server: translation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate translation")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"ja_translation": translation,
	})
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Level string `json:"level"`
}

func (s *Server) handleTTSGenerate(w http.ResponseWriter, r *http.Request) {
	if s.synth == nil {
		writeError(w, http.StatusServiceUnavailable, "TTS not configured")
		return
	}

	var req ttsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	speed := 1.0
	if cfg, ok := news.Levels[req.Level]; ok {
		speed = cfg.Speed
	}

	result, err := s.synth.Synthesize(r.Context(), req.Text, req.Voice, speed)
	if err != nil {
		log.Printf("server: TTS generation failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate audio")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"audioUrl": "/audio/" + result.FileName,
		"cached":   result.Cached,
		"fileSize": result.Size,
	})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	if s.synth == nil {
		http.NotFound(w, r)
		return
	}
	path, err := s.synth.AudioPath(r.PathValue("file"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	http.ServeFile(w, r, path)
}

type resetRequest struct {
	Key string `json:"key"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	// An empty or absent body means "clear everything".
	json.NewDecoder(r.Body).Decode(&req) //nolint: errcheck

	s.svc.ResetHistory(req.Key)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	type windowView struct {
		Key     string
		Entries int
	}
	var windows []windowView
	store := s.svc.Store()
	for _, key := range store.Keys() {
		windows = append(windows, windowView{Key: key, Entries: len(store.Get(key))})
	}

	cached := 0
	if s.db != nil {
		cached, _ = s.db.CountProcessed()
	}

	s.render(w, "index.html", map[string]any{
		"Windows": windows,
		"Cached":  cached,
	})
}

func (s *Server) handleAdminArticle(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.NotFound(w, r)
		return
	}
	hash := r.URL.Query().Get("hash")
	level := r.URL.Query().Get("level")

	article, err := s.db.GetProcessed(hash, level)
	if err != nil || article == nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, "article.html", map[string]any{
		"Article": article,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// withCORS allows the browser client to call the API from a different
// origin during development.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve starts the HTTP server on the given port.
func Serve(svc *pipeline.Service, synth *tts.Synthesizer, db *database.DB, port int) error {
	srv, err := New(svc, synth, db)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
