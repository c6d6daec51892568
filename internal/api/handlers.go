package api

import (
	"net/http"

	"github.com/sprite-ai/plugver/internal/analysis"
	"github.com/sprite-ai/plugver/internal/apperr"
	"github.com/sprite-ai/plugver/internal/diff"
	"github.com/sprite-ai/plugver/internal/manifest"
	"github.com/sprite-ai/plugver/internal/model"
	"github.com/sprite-ai/plugver/internal/semver"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Classify ---

type classifyRequest struct {
	Plugin string `json:"plugin"`
	Diff   string `json:"diff"`
}

type classifyResponse struct {
	Decision model.BumpKind `json:"decision"`
	Reason   string         `json:"reason"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if !manifest.ValidPluginID(req.Plugin) {
		s.writeError(w, apperr.New(apperr.CodeInvalidArgument, "plugin must be a single path segment"))
		return
	}
	if req.Diff == "" {
		s.writeError(w, apperr.New(apperr.CodeInvalidArgument, "diff is required"))
		return
	}

	verdict, err := s.oracle.ClassifyBump(r.Context(), req.Plugin, req.Diff)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, classifyResponse{Decision: verdict.Kind, Reason: verdict.Reason})
}

// --- Requires ---

type requiresRequest struct {
	Diff string `json:"diff"`
}

type requiresResponse struct {
	Required bool `json:"required"`
}

func (s *Server) handleRequires(w http.ResponseWriter, r *http.Request) {
	var req requiresRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, requiresResponse{Required: s.oracle.ClassifyRequired(r.Context(), req.Diff)})
}

// --- Next version ---

type nextVersionRequest struct {
	Version string `json:"version"`
	Kind    string `json:"kind"`
}

type nextVersionResponse struct {
	Version semver.Version `json:"version"`
}

func (s *Server) handleNextVersion(w http.ResponseWriter, r *http.Request) {
	var req nextVersionRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	v, err := semver.Parse(req.Version)
	if err != nil {
		s.writeError(w, apperr.Wrap(err, apperr.CodeInvalidVersion, "invalid version"))
		return
	}
	kind, err := model.ParseBumpKind(req.Kind)
	if err != nil {
		s.writeError(w, apperr.Wrap(err, apperr.CodeInvalidArgument, "invalid kind"))
		return
	}
	s.writeJSON(w, http.StatusOK, nextVersionResponse{Version: semver.Next(v, kind)})
}

// --- Parse ---

type parseRequest struct {
	Diff string `json:"diff"`
}

type parseResponse struct {
	Files []fileJSON    `json:"files"`
	Stats diffStatsJSON `json:"stats"`
}

type fileJSON struct {
	Name         string `json:"name"`
	OldName      string `json:"old_name,omitempty"`
	NewName      string `json:"new_name,omitempty"`
	IsNew        bool   `json:"is_new,omitempty"`
	IsDeleted    bool   `json:"is_deleted,omitempty"`
	IsRenamed    bool   `json:"is_renamed,omitempty"`
	IsBinary     bool   `json:"is_binary,omitempty"`
	AddedLines   int    `json:"added_lines"`
	DeletedLines int    `json:"deleted_lines"`
	Fragments    int    `json:"fragments"`
}

type diffStatsJSON struct {
	Files   int `json:"files"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

// parseDiff decodes the body's diff, rejecting empty or malformed input.
func parseDiff(raw string) (*diff.DiffSet, error) {
	if raw == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "diff is required")
	}
	ds, err := diff.Parse(raw)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInvalidArgument, "parsing diff")
	}
	return ds, nil
}

func statsJSON(ds *diff.DiffSet) diffStatsJSON {
	nFiles, added, deleted := ds.Stats()
	return diffStatsJSON{Files: nFiles, Added: added, Deleted: deleted}
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ds, err := parseDiff(req.Diff)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := parseResponse{Stats: statsJSON(ds), Files: []fileJSON{}}
	for _, f := range ds.Files {
		resp.Files = append(resp.Files, fileJSON{
			Name:         f.Name(),
			OldName:      f.OldName,
			NewName:      f.NewName,
			IsNew:        f.IsNew,
			IsDeleted:    f.IsDeleted,
			IsRenamed:    f.IsRenamed,
			IsBinary:     f.IsBinary,
			AddedLines:   f.AddedLines,
			DeletedLines: f.DeletedLines,
			Fragments:    len(f.Fragments),
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// --- Analyze ---

type analyzeRequest struct {
	Diff string   `json:"diff"`
	Skip []string `json:"skip,omitempty"`
}

type analyzeResponse struct {
	Summary  string         `json:"summary"`
	Decision model.BumpKind `json:"decision"`
	Reason   string         `json:"reason"`
	Findings []findingJSON  `json:"findings"`
	Stats    diffStatsJSON  `json:"stats"`
}

type findingJSON struct {
	Pass    string         `json:"pass"`
	File    string         `json:"file"`
	Line    int            `json:"line,omitempty"`
	Message string         `json:"message"`
	Kind    model.BumpKind `json:"kind"`
}

// handleAnalyze runs the offline rule passes without consulting the oracle.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ds, err := parseDiff(req.Diff)
	if err != nil {
		s.writeError(w, err)
		return
	}

	results := analysis.Run(ds, s.layout, req.Skip)
	verdict := results.Verdict()
	resp := analyzeResponse{
		Summary:  results.Summary(),
		Decision: verdict.Kind,
		Reason:   verdict.Reason,
		Findings: []findingJSON{},
		Stats:    statsJSON(ds),
	}
	for _, f := range results.Findings {
		resp.Findings = append(resp.Findings, findingJSON{
			Pass:    f.Pass,
			File:    f.File,
			Line:    f.Line,
			Message: f.Message,
			Kind:    f.Kind,
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}
