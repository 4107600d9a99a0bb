package routers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/filiksyos/gittodoc/internal/events"
	"github.com/filiksyos/gittodoc/internal/github"
	"github.com/filiksyos/gittodoc/internal/history"
	"github.com/filiksyos/gittodoc/internal/ingest"
)

type DigestRoutes struct {
	service  *ingest.Service
	stars    *github.StarCounter
	starRepo string
	events   events.Producer
	history  history.Repository
	renderer *renderer
	logger   *log.Logger
}

func NewDigestRoutes(deps Dependencies, rd *renderer) *DigestRoutes {
	return &DigestRoutes{
		service:  deps.Ingest,
		stars:    deps.Stars,
		starRepo: deps.StarRepo,
		events:   deps.Events,
		history:  deps.History,
		renderer: rd,
		logger:   deps.Logger,
	}
}

func (d *DigestRoutes) RegisterHandlers(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", d.handleIndex)
	mux.HandleFunc("GET /health", d.handleHealth)
	mux.HandleFunc("GET /api/history", d.handleHistory)
	mux.HandleFunc("GET /github.com/{owner}/{repo}", d.handleGitHubRedirect)
	mux.HandleFunc("GET /{path...}", d.handleCatchAll)
	mux.HandleFunc("POST /{path...}", d.handleSubmit)
}

func (d *DigestRoutes) handleIndex(w http.ResponseWriter, r *http.Request) {
	d.renderer.renderFull(w, d.baseView(r))
}

func (d *DigestRoutes) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (d *DigestRoutes) handleHistory(w http.ResponseWriter, r *http.Request) {
	if d.history == nil {
		http.Error(w, "history is not configured", http.StatusNotFound)
		return
	}
	records, err := d.history.Recent(r.Context(), 20)
	if err != nil {
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

// handleGitHubRedirect lets users paste a github.com URL path directly:
// /github.com/{owner}/{repo} becomes /{owner}/{repo}.
func (d *DigestRoutes) handleGitHubRedirect(w http.ResponseWriter, r *http.Request) {
	target := "/" + r.PathValue("owner") + "/" + r.PathValue("repo")
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// handleCatchAll treats /{owner}/{repo}[/subpath] as an auto-ingest of the
// matching GitHub repository. Anything else renders the form with the path
// prefilled.
func (d *DigestRoutes) handleCatchAll(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.PathValue("path"), "/")
	segments := strings.Split(path, "/")

	data := d.baseView(r)

	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		data.RepoURL = path
		d.renderer.renderFull(w, data)
		return
	}

	repoURL := "https://github.com/" + path
	if strings.Contains(segments[0], ".") {
		// The path already names a host, e.g. /github.com/owner/repo/tree/x.
		repoURL = "https://" + path
	}
	data.RepoURL = repoURL

	d.runIngest(r.Context(), &data, repoURL, "exclude", "", defaultSliderPos)
	d.renderer.renderFull(w, data)
}

// handleSubmit processes the digest form. Resubmissions come from the
// client-side fetch, so the response is the body-only fragment.
func (d *DigestRoutes) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	inputText := strings.TrimSpace(r.PostFormValue("input_text"))
	patternType := r.PostFormValue("pattern_type")
	pattern := r.PostFormValue("pattern")
	sliderPos, err := strconv.Atoi(r.PostFormValue("max_file_size"))
	if err != nil {
		sliderPos = defaultSliderPos
	}

	data := d.baseView(r)
	data.RepoURL = inputText
	data.Pattern = pattern
	data.PatternType = patternType
	data.SliderPos = sliderPos
	data.SliderLabel = sliderLabel(sliderPos)

	if inputText == "" {
		data.ErrorMessage = "Please provide a repository URL or a directory path."
		d.renderer.renderFragment(w, data)
		return
	}
	if patternType != "include" && patternType != "exclude" {
		data.ErrorMessage = "Pattern type must be include or exclude."
		d.renderer.renderFragment(w, data)
		return
	}

	d.runIngest(r.Context(), &data, inputText, patternType, pattern, sliderPos)
	d.renderer.renderFragment(w, data)
}

// runIngest performs the single provider call and folds the outcome into the
// view: a result on success, an inline message on failure. No retries.
func (d *DigestRoutes) runIngest(ctx context.Context, data *viewData, source, patternType, pattern string, sliderPos int) {
	started := time.Now()

	query, err := ingest.ParseQuery(source, logSliderToSize(sliderPos))
	if err == nil {
		patterns := ingest.SplitPatterns(pattern)
		if patternType == "include" {
			query.IncludePatterns = patterns
		} else {
			query.IgnorePatterns = append(query.IgnorePatterns, patterns...)
		}
	}

	var digest *ingest.Digest
	if err == nil {
		digest, err = d.service.Ingest(ctx, query)
	}

	if err != nil {
		d.logger.Printf("ingest failed for %q: %v", source, err)
		data.ErrorMessage = err.Error()
		d.record(source, slugOf(query), started, nil, err)
		return
	}

	data.Result = resultViewFrom(digest)
	d.record(source, digest.Slug, started, digest, nil)
}

func (d *DigestRoutes) record(source, slug string, started time.Time, digest *ingest.Digest, err error) {
	event := events.IngestEvent{
		Slug:       slug,
		Source:     source,
		Status:     "ok",
		DurationMs: time.Since(started).Milliseconds(),
		Timestamp:  time.Now(),
	}
	rec := history.Record{
		Slug:       slug,
		Source:     source,
		Status:     "ok",
		DurationMs: event.DurationMs,
	}

	if err != nil {
		event.Status = "error"
		event.Error = err.Error()
		rec.Status = "error"
	} else {
		event.TokenEstimate = digest.TokenEstimate
		event.Uploaded = digest.RemoteURL != ""
		rec.TokenEstimate = digest.TokenEstimate
		rec.RemoteURL = digest.RemoteURL
	}

	events.Emit(d.events, d.logger, event)

	if d.history != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := d.history.Save(ctx, rec); err != nil {
				d.logger.Printf("save ingest record: %v", err)
			}
		}()
	}
}

func slugOf(q *ingest.Query) string {
	if q == nil {
		return ""
	}
	return q.Slug
}

func (d *DigestRoutes) baseView(r *http.Request) viewData {
	data := viewData{
		StarRepo:    d.starRepo,
		StarsText:   "–",
		PatternType: "exclude",
		SliderPos:   defaultSliderPos,
		SliderLabel: sliderLabel(defaultSliderPos),
	}
	if d.stars != nil {
		if stars := d.stars.Stars(r.Context()); stars >= 0 {
			data.StarsText = ingest.FormatTokenCount(stars)
		}
	}
	return data
}
