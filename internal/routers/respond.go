package routers

import (
	"fmt"
	"html/template"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/filiksyos/gittodoc/internal/ingest"
	"github.com/filiksyos/gittodoc/internal/web"
)

// viewData is everything the page templates can render. html/template's
// contextual escaping covers every user-supplied field in it.
type viewData struct {
	StarRepo  string
	StarsText string

	RepoURL     string
	PatternType string
	Pattern     string
	SliderPos   int
	SliderLabel string

	ErrorMessage string
	Result       *resultView
}

type resultView struct {
	Summary      string
	Tree         string
	Content      string
	TokenBadge   string
	RemoteURL    string
	UploadFailed bool
}

const defaultSliderPos = 243

type renderer struct {
	templates *template.Template
	logger    *log.Logger
}

func newRenderer(logger *log.Logger) (*renderer, error) {
	tmpl, err := template.ParseFS(web.Templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &renderer{templates: tmpl, logger: logger}, nil
}

// renderFull writes the complete document; renderFragment writes the
// body-only variant that the client swaps in on resubmission.
func (rd *renderer) renderFull(w http.ResponseWriter, data viewData) {
	rd.render(w, "layout.html", data)
}

func (rd *renderer) renderFragment(w http.ResponseWriter, data viewData) {
	rd.render(w, "body", data)
}

func (rd *renderer) render(w http.ResponseWriter, name string, data viewData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rd.templates.ExecuteTemplate(w, name, data); err != nil {
		rd.logger.Printf("render %s: %v", name, err)
	}
}

func resultViewFrom(d *ingest.Digest) *resultView {
	return &resultView{
		Summary:      d.Summary,
		Tree:         d.Tree,
		Content:      d.Content,
		TokenBadge:   ingest.FormatTokenCount(d.TokenEstimate),
		RemoteURL:    d.RemoteURL,
		UploadFailed: d.UploadFailed,
	}
}

// logSliderToSize maps the form's 1..500 slider position onto a per-file
// byte ceiling: kilobytes grow exponentially, topping out at 100 MB. The
// default position 243 lands near 50 kB.
func logSliderToSize(position int) int64 {
	if position < 1 {
		position = 1
	}
	if position > 500 {
		position = 500
	}
	maxValue := math.Log(102400)
	kb := math.Round(math.Exp(maxValue * math.Pow(float64(position)/500, 1.5)))
	return int64(kb) * 1024
}

func sliderLabel(position int) string {
	kb := logSliderToSize(position) / 1024
	if kb >= 1024 {
		return strconv.FormatInt(int64(math.Round(float64(kb)/1024)), 10) + " MB"
	}
	return strconv.FormatInt(kb, 10) + " kB"
}
