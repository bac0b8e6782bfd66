package voting

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"estate-desk/society-portal/society-portal-backend/internal/auth"
	"estate-desk/society-portal/society-portal-backend/internal/export"
	"estate-desk/society-portal/society-portal-backend/internal/notifications/websocket"
)

type Handler struct {
	service Service
	hub     *websocket.Hub
	logger  *zap.Logger
}

func NewHandler(service Service, hub *websocket.Hub, logger *zap.Logger) *Handler {
	return &Handler{service: service, hub: hub, logger: logger}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth, requireOwner gin.HandlerFunc) {
	projects := rg.Group("/redevelopment-projects/:id", requireAuth)
	{
		projects.POST("/votes", h.SubmitVote)
		projects.GET("/votes/me", h.GetMyVote)
		projects.GET("/votes/mine", h.ListMyVotes)
		projects.GET("/votes/statistics", h.Statistics)

		projects.POST("/voting/start", requireOwner, h.StartVoting)
		projects.POST("/voting/close", requireOwner, h.CloseVoting)
		projects.GET("/voting/sessions", h.ListSessions)
		projects.GET("/voting/status", h.SessionStatus)
		projects.GET("/voting/results", h.FinalResults)
		projects.GET("/voting/results/export", h.ExportResults)
		projects.GET("/voting/live", h.Live)
	}
}

// writeError maps domain errors onto the documented response codes.
// "Already voted" and "voting closed" are expected outcomes the UI renders
// as informational states, so they carry a code field the client can match
// instead of parsing messages.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrDuplicateVote):
		c.JSON(http.StatusConflict, gin.H{"code": "already_voted", "error": err.Error()})
	case errors.Is(err, ErrAlreadyClosed):
		c.JSON(http.StatusConflict, gin.H{"code": "already_closed", "error": err.Error()})
	case errors.Is(err, ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"code": "invalid_state", "error": err.Error()})
	case errors.Is(err, ErrNotEligible):
		c.JSON(http.StatusForbidden, gin.H{"code": "not_eligible", "error": err.Error()})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"code": "forbidden", "error": err.Error()})
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "error": err.Error()})
	case errors.Is(err, ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"code": "validation", "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) projectID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) SubmitVote(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	var req SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vote, err := h.service.CastVote(c.Request.Context(), auth.MemberID(c), projectID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vote)
}

func (h *Handler) GetMyVote(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}
	sessionKey := c.Query("session")
	if sessionKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session query parameter is required"})
		return
	}

	var proposalID *uuid.UUID
	if p := c.Query("proposal"); p != "" {
		id, err := uuid.Parse(p)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
			return
		}
		proposalID = &id
	}

	vote, err := h.service.GetMyVote(c.Request.Context(), auth.MemberID(c), projectID, sessionKey, proposalID)
	if err != nil {
		// 404 here means "not voted yet"; the client treats it as a normal
		// state, not a failure.
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, vote)
}

func (h *Handler) ListMyVotes(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	votes, err := h.service.ListMemberVotes(c.Request.Context(), auth.MemberID(c), projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, votes)
}

func (h *Handler) Statistics(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}
	sessionKey := c.Query("session")
	if sessionKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session query parameter is required"})
		return
	}

	stats, err := h.service.Statistics(c.Request.Context(), projectID, sessionKey)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) StartVoting(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	var body struct {
		StartVotingRequest
		VotingSession string `json:"voting_session"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.VotingSession == "" {
		body.VotingSession = SessionProposalSelection
	}

	session, err := h.service.StartVoting(c.Request.Context(), auth.SocietyID(c), projectID, body.VotingSession, body.StartVotingRequest)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) CloseVoting(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	sessionKey := c.Query("session")
	if sessionKey == "" {
		sessionKey = SessionProposalSelection
	}

	results, err := h.service.CloseVoting(c.Request.Context(), auth.SocietyID(c), projectID, sessionKey)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) ListSessions(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) SessionStatus(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}
	sessionKey := c.Query("session")
	if sessionKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session query parameter is required"})
		return
	}

	session, effective, err := h.service.SessionStatus(c.Request.Context(), projectID, sessionKey)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := gin.H{"status": effective}
	if session != nil {
		resp["session"] = session
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) FinalResults(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}
	sessionKey := c.Query("session")
	if sessionKey == "" {
		sessionKey = SessionProposalSelection
	}

	results, err := h.service.FinalResults(c.Request.Context(), projectID, sessionKey)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) ExportResults(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}
	sessionKey := c.Query("session")
	if sessionKey == "" {
		sessionKey = SessionProposalSelection
	}

	results, err := h.service.FinalResults(c.Request.Context(), projectID, sessionKey)
	if err != nil {
		writeError(c, err)
		return
	}

	doc := exportDocument(results)

	switch c.DefaultQuery("format", "pdf") {
	case "xlsx":
		data, err := export.ParticipationRegisterXLSX(doc)
		if err != nil {
			h.logger.Error("failed to build xlsx export", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="voting-results.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	case "pdf":
		data, err := export.ResultsSummaryPDF(doc)
		if err != nil {
			h.logger.Error("failed to build pdf export", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="voting-results.pdf"`)
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be pdf or xlsx"})
	}
}

// exportDocument flattens final results into the renderable export shape.
func exportDocument(results *FinalResults) *export.ResultsDocument {
	doc := &export.ResultsDocument{
		Title:              "Voting Results",
		SessionKey:         results.SessionKey,
		ClosedAt:           results.ClosedAt,
		EligibleMembers:    results.EligibleMembers,
		VotesCast:          results.VotesCast,
		MinimumApprovalPct: results.MinimumApprovalPct,
		IsApproved:         results.IsApproved,
	}
	for _, p := range results.ProposalResults {
		label := p.DeveloperName
		if label == "" {
			label = "Project approval"
		}
		if p.Selected {
			doc.WinnerLabel = label
		}
		doc.Rows = append(doc.Rows, export.ResultRow{
			Label:            label,
			YesVotes:         p.YesVotes,
			NoVotes:          p.NoVotes,
			AbstainVotes:     p.AbstainVotes,
			TotalVotes:       p.TotalVotes,
			ApprovalPct:      p.ApprovalPercentage,
			ParticipationPct: p.ParticipationRate,
			Qualified:        p.Qualified,
			Selected:         p.Selected,
		})
	}
	return doc
}

// Live streams tally updates for a project over WebSocket.
func (h *Handler) Live(c *gin.Context) {
	projectID, ok := h.projectID(c)
	if !ok {
		return
	}
	if err := h.hub.Serve(c.Writer, c.Request, projectID.String()); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}
