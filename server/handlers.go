package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/solvari/radar/pkg/domain"
)

// maxBatchURLs caps the number of URLs accepted per pipeline request
const maxBatchURLs = 100

// statusHandler returns server status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"service": "solvari-radar",
		"version": s.version,
		"time":    time.Now().UTC(),
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// ringInfo describes one ring of the classification system
type ringInfo struct {
	Number      int      `json:"number"`
	Name        string   `json:"name"`
	Marker      string   `json:"marker"`
	Description string   `json:"description"`
	Hooks       []string `json:"hooks"`
}

// ringsHandler returns information about the four-ring classification system
func (s *Server) ringsHandler(w http.ResponseWriter, r *http.Request) {
	rings := []ringInfo{
		{
			Number:      1,
			Name:        domain.RingVakman.Name(),
			Marker:      domain.RingVakman.Marker(),
			Description: "Gevestigde bedrijven (>5 jaar), conservatief, zoekt efficiëntie",
			Hooks:       []string{"Directe agenda-vulling", "Instant Payouts"},
		},
		{
			Number:      2,
			Name:        domain.RingZZP.Name(),
			Marker:      domain.RingZZP.Marker(),
			Description: "Jonge ondernemers, tech-savvy, zoekt groei",
			Hooks:       []string{"Gratis Admin-Bot", "Real-time Lead Radar"},
		},
		{
			Number:      3,
			Name:        domain.RingHobbyist.Name(),
			Marker:      domain.RingHobbyist.Marker(),
			Description: "Handige buren, part-timers, nog geen KvK",
			Hooks:       []string{"Solvari Starter Programma", "ZZP Wizard"},
		},
		{
			Number:      4,
			Name:        domain.RingAcademy.Name(),
			Marker:      domain.RingAcademy.Marker(),
			Description: "Interne Solvari medewerkers",
			Hooks:       []string{"Monitoring Dashboard", "Flagging System"},
		},
	}
	RenderJSON(w, r, http.StatusOK, map[string]any{"rings": rings})
}

// statsHandler returns dashboard statistics
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.database.GetStats(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, stats)
}

// profileResponse is the JSON representation of a stored profile
type profileResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Ring           int       `json:"ring"`
	RingName       string    `json:"ring_name"`
	RingMarker     string    `json:"ring_marker"`
	QualityScore   float64   `json:"quality_score"`
	Confidence     float64   `json:"confidence"`
	Location       string    `json:"location"`
	Specialization []string  `json:"specialization"`
	SourceURL      string    `json:"source_url"`
	OutreachSent   bool      `json:"outreach_sent"`
	CreatedAt      time.Time `json:"created_at"`
}

// toProfileResponse converts a domain profile for rendering
func toProfileResponse(p *domain.Profile) profileResponse {
	spec := p.Specialization
	if spec == nil {
		spec = []string{}
	}
	return profileResponse{
		ID:             p.ID,
		Name:           p.Name,
		Ring:           int(p.Ring),
		RingName:       p.Ring.Name(),
		RingMarker:     p.Ring.Marker(),
		QualityScore:   p.QualityScore,
		Confidence:     p.Confidence,
		Location:       p.Location,
		Specialization: spec,
		SourceURL:      p.SourceURL,
		OutreachSent:   p.OutreachSent,
		CreatedAt:      p.CreatedAt,
	}
}

// listProfilesHandler lists profiles, optionally filtered by ring
func (s *Server) listProfilesHandler(w http.ResponseWriter, r *http.Request) {
	var ring domain.Ring
	if ringStr := r.URL.Query().Get("ring"); ringStr != "" {
		n, err := strconv.Atoi(ringStr)
		if err != nil || !domain.Ring(n).Valid() {
			RenderError(w, r, fmt.Errorf("invalid ring %q", ringStr), http.StatusBadRequest)
			return
		}
		ring = domain.Ring(n)
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	profiles, err := s.database.GetProfiles(r.Context(), ring, limit)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	resp := make([]profileResponse, len(profiles))
	for i := range profiles {
		resp[i] = toProfileResponse(&profiles[i])
	}
	RenderJSON(w, r, http.StatusOK, resp)
}

// getProfileHandler returns a single profile by ID
func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		RenderError(w, r, fmt.Errorf("invalid profile id"), http.StatusBadRequest)
		return
	}

	profile, err := s.database.GetProfile(r.Context(), id)
	if err != nil {
		RenderError(w, r, fmt.Errorf("profile not found"), http.StatusNotFound)
		return
	}
	RenderJSON(w, r, http.StatusOK, toProfileResponse(profile))
}

// classifyRequest is a request to classify raw text
type classifyRequest struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
}

// classifyHandler classifies text content into a ring without persisting
func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		RenderError(w, r, fmt.Errorf("text is required"), http.StatusBadRequest)
		return
	}

	sourceURL := req.SourceURL
	if sourceURL == "" {
		sourceURL = "manual-input"
	}

	classification := s.classifier.Classify(r.Context(), domain.ScrapedContent{
		URL:         sourceURL,
		TextContent: req.Text,
		SourceType:  "manual",
		ScrapedAt:   time.Now(),
	})

	RenderJSON(w, r, http.StatusOK, map[string]any{
		"ring":             int(classification.Ring),
		"ring_name":        classification.Ring.Name(),
		"quality_score":    classification.QualityScore,
		"confidence":       classification.Confidence,
		"reasoning":        classification.Reasoning,
		"recommended_hook": classification.RecommendedHook,
	})
}

// pipelineRequest is a request to run the full pipeline on a URL batch
type pipelineRequest struct {
	URLs                 []string `json:"urls"`
	SourceType           string   `json:"source_type"`
	AutoGenerateOutreach *bool    `json:"auto_generate_outreach"`
}

// pipelineHandler runs scrape -> classify -> outreach for a batch of URLs
func (s *Server) pipelineHandler(w http.ResponseWriter, r *http.Request) {
	var req pipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}
	if len(req.URLs) == 0 {
		RenderError(w, r, fmt.Errorf("urls are required"), http.StatusBadRequest)
		return
	}
	if len(req.URLs) > maxBatchURLs {
		RenderError(w, r, fmt.Errorf("too many urls, maximum %d", maxBatchURLs), http.StatusBadRequest)
		return
	}

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = "generic"
	}
	autoOutreach := true
	if req.AutoGenerateOutreach != nil {
		autoOutreach = *req.AutoGenerateOutreach
	}

	results := s.pipeline.Process(r.Context(), req.URLs, sourceType, autoOutreach)
	RenderJSON(w, r, http.StatusOK, results)
}

// outreachRequest is a request to generate outreach for a stored profile
type outreachRequest struct {
	ProfileID int64  `json:"profile_id"`
	Channel   string `json:"channel"`
}

// generateOutreachHandler generates and stores an outreach message for a profile
func (s *Server) generateOutreachHandler(w http.ResponseWriter, r *http.Request) {
	var req outreachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RenderError(w, r, fmt.Errorf("invalid request: %w", err), http.StatusBadRequest)
		return
	}

	channel := domain.Channel(req.Channel)
	switch channel {
	case "", domain.ChannelEmail, domain.ChannelDM, domain.ChannelInvite:
		// valid overrides, empty selects the ring default
	default:
		RenderError(w, r, fmt.Errorf("invalid channel %q", req.Channel), http.StatusBadRequest)
		return
	}

	profile, err := s.database.GetProfile(r.Context(), req.ProfileID)
	if err != nil {
		RenderError(w, r, fmt.Errorf("profile not found"), http.StatusNotFound)
		return
	}

	// rebuild the classification from the stored profile
	classification := domain.Classification{
		Ring:            profile.Ring,
		QualityScore:    profile.QualityScore,
		Confidence:      profile.Confidence,
		Reasoning:       profile.Reasoning,
		ExtractedData:   profile.ExtractedData,
		RecommendedHook: profile.RecommendedHook,
	}

	msg := s.generator.Generate(profile.ID, classification, channel)
	id, err := s.database.CreateOutreach(r.Context(), &msg)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}

	RenderJSON(w, r, http.StatusOK, map[string]any{
		"id":      id,
		"channel": msg.Channel,
		"subject": msg.Subject,
		"body":    msg.Body,
	})
}
