package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vijay-prabhu/bursary-matcher/internal/database"
	"github.com/vijay-prabhu/bursary-matcher/internal/filter"
	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
)

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Health(ctx); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": s.store.Driver()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": s.store.Driver()})
}

func (s *Server) stats(c *gin.Context) {
	stats, err := s.store.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) listOpportunities(c *gin.Context) {
	opts := database.OpportunityListOptions{}

	if q := strings.TrimSpace(c.Query("search")); q != "" {
		opts.Search = &q
	}
	if v := c.Query("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(c, badRequest("since must be an RFC 3339 timestamp", err))
			return
		}
		opts.Since = &since
	}

	var err error
	if opts.Limit, err = intQuery(c, "limit"); err != nil {
		writeError(c, err)
		return
	}
	if opts.Offset, err = intQuery(c, "offset"); err != nil {
		writeError(c, err)
		return
	}

	opps, err := s.store.ListOpportunities(c.Request.Context(), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	if opps == nil {
		opps = []database.Opportunity{}
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": opps, "count": len(opps)})
}

func (s *Server) getProfile(c *gin.Context) {
	userID := c.Param("user_id")

	profile, err := s.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if len(profile.Qualifications) == 0 {
		writeError(c, errNotFound)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ProfileRequest replaces a user's qualifications
type ProfileRequest struct {
	Qualifications []database.Qualification `json:"qualifications"`
}

func (s *Server) putProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest("invalid request body", err))
		return
	}

	profile := &database.UserProfile{UserID: strings.TrimSpace(c.Param("user_id"))}
	for i, q := range req.Qualifications {
		q.Industry = strings.TrimSpace(q.Industry)
		var courses []string
		for _, course := range q.Courses {
			if course = strings.TrimSpace(course); course != "" {
				courses = append(courses, course)
			}
		}
		if q.Industry == "" && len(courses) == 0 {
			writeError(c, badRequest("qualification "+strconv.Itoa(i)+" needs an industry or courses", nil))
			return
		}
		profile.Qualifications = append(profile.Qualifications, database.Qualification{Industry: q.Industry, Courses: courses})
	}

	if err := s.store.SaveProfile(c.Request.Context(), profile); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// MatchRequest optionally carries the candidates to match; without it the
// stored catalogue is used
type MatchRequest struct {
	Candidates []filter.Candidate `json:"candidates"`
}

// MatchResponse is a compute_matches result with any persistence failure
// spelled out
type MatchResponse struct {
	*matching.Result
	PersistError string `json:"persist_error,omitempty"`
}

func (s *Server) computeMatches(c *gin.Context) {
	ctx := c.Request.Context()

	limit, err := intQuery(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}

	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, badRequest("invalid request body", err))
		return
	}

	candidates := req.Candidates
	if candidates == nil {
		if candidates, err = s.svc.StoredCandidates(ctx); err != nil {
			writeError(c, err)
			return
		}
	}

	result, err := s.svc.ComputeMatches(ctx, c.Param("user_id"), candidates, matching.Options{
		Limit:    limit,
		Strategy: matching.Strategy(c.Query("strategy")),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := MatchResponse{Result: result}
	if result.PersistErr != nil {
		resp.PersistError = result.PersistErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listMatches(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}

	matches, err := s.svc.ListMatches(c.Request.Context(), c.Param("user_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches, "count": len(matches)})
}

func (s *Server) reembed(c *gin.Context) {
	result, err := s.svc.Reembed(c.Request.Context(), nil)
	if err != nil {
		writeError(c, err)
		return
	}

	body := gin.H{"result": result}
	if result.PersistErr != nil {
		body["persist_error"] = result.PersistErr.Error()
	}
	c.JSON(http.StatusOK, body)
}

// ScoreRequest asks for the breakdown of one opportunity, optionally
// against a stored profile
type ScoreRequest struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) score(c *gin.Context) {
	ctx := c.Request.Context()

	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest("invalid request body", err))
		return
	}

	var profile *database.UserProfile
	if id := strings.TrimSpace(req.UserID); id != "" {
		p, err := s.svc.Profile(ctx, id)
		if err != nil {
			writeError(c, err)
			return
		}
		profile = p
	}

	c.JSON(http.StatusOK, s.svc.Explain(ctx, profile, req.Title, req.Description))
}

// intQuery reads a non-negative integer query parameter; absent means 0
func intQuery(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest(name+" must be a non-negative integer", nil)
	}
	return n, nil
}
