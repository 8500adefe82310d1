package web

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kaundalabs/dumsor/pkg/analyst"
	"github.com/kaundalabs/dumsor/pkg/analyst/envelope"
	"github.com/kaundalabs/dumsor/pkg/conversation"
	"github.com/kaundalabs/dumsor/pkg/warehouse"
)

// noNarrativePlaceholder is shown in place of an empty assistant bubble.
const noNarrativePlaceholder = "(no text)"

// ErrorResponse is the JSON error envelope for the web API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateSessionResponse is returned when a new session is opened.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

// AskRequest is the body of a message submission.
type AskRequest struct {
	Question string `json:"question"`
}

// HistoryTurn is the rendered view of one turn.
type HistoryTurn struct {
	Role string   `json:"role"`
	Text string   `json:"text"`
	SQL  []string `json:"sql,omitempty"`
}

// HistoryResponse contains the session's turns in order of occurrence.
type HistoryResponse struct {
	SessionID string        `json:"session_id"`
	Turns     []HistoryTurn `json:"turns"`
}

// QueryResults is the rendered form of an executed statement's output.
type QueryResults struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// InteractionResponse is the outcome of one submission: the normalized
// narrative and SQL, plus whichever optional pieces this interaction
// produced. A transport failure never reaches this shape; it is rendered as
// an ErrorResponse with a 5xx status instead.
type InteractionResponse struct {
	Text string   `json:"text"`
	SQL  []string `json:"sql,omitempty"`

	// AppError is the service-level rejection embedded in an otherwise
	// successful reply. It can accompany partial narrative text.
	AppError *envelope.ErrorInfo `json:"app_error,omitempty"`

	// Results is present when the first SQL statement was executed.
	Results *QueryResults `json:"results,omitempty"`

	// QueryError reports a warehouse failure; narrative and SQL display
	// still proceed.
	QueryError string `json:"query_error,omitempty"`

	// ExecutionDisabled signals that SQL was returned but the warehouse
	// capability is not configured.
	ExecutionDisabled bool `json:"execution_disabled,omitempty"`

	DebugInfo json.RawMessage `json:"debug_info,omitempty"`

	// Raw is the unmodified analyst response body, included when the
	// caller opts in with ?raw=true.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// handleIndex serves the embedded chat page.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html")
	return c.Send(indexHTML)
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleCreateSession opens a new conversation session.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	id := s.sessions.Create()
	s.logger.Debug("session created", zap.String("session_id", id))
	return c.Status(fiber.StatusCreated).JSON(CreateSessionResponse{SessionID: id})
}

// handleEndSession tears a session down.
func (s *Server) handleEndSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if !s.sessions.End(id) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	s.logger.Debug("session ended", zap.String("session_id", id))
	return c.SendStatus(fiber.StatusNoContent)
}

// handleHistory returns the session's turns for re-rendering.
func (s *Server) handleHistory(c *fiber.Ctx) error {
	id := c.Params("id")

	turns, err := s.sessions.History(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	rendered := make([]HistoryTurn, 0, len(turns))
	for _, turn := range turns {
		rendered = append(rendered, renderTurn(turn))
	}

	return c.JSON(HistoryResponse{SessionID: id, Turns: rendered})
}

// renderTurn maps a stored turn to its display view, substituting the
// placeholder for assistant turns that carried no narrative.
func renderTurn(turn conversation.Turn) HistoryTurn {
	text := turn.Text
	if turn.Role == analyst.RoleAssistant && strings.TrimSpace(text) == "" {
		text = noNarrativePlaceholder
	}

	return HistoryTurn{
		Role: turn.Role,
		Text: text,
		SQL:  turn.SQL,
	}
}

// handleAsk runs one full interaction: append the user turn, replay the
// conversation to the analyst, append the normalized assistant turn, then
// optionally execute the first SQL statement.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	id := c.Params("id")

	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	store, err := s.sessions.Begin(id)
	if err != nil {
		if errors.Is(err, errSessionBusy) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
		}
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}
	defer s.sessions.Finish(id)

	if err := store.AppendUser(question); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "recording question"})
	}

	reply, err := s.analyst.Send(c.Context(), store.WireMessages())
	if err != nil {
		// The user's turn stays appended so the question remains visible
		// for resubmission; nothing is rolled back.
		var terr *analyst.TransportError
		if errors.As(err, &terr) {
			s.logger.Warn("analyst transport failure",
				zap.String("session_id", id),
				zap.Int("status", terr.Status),
				zap.Error(err),
			)
			return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: terr.Error()})
		}

		s.logger.Error("analyst interaction failed",
			zap.String("session_id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	store.AppendAssistant(reply)

	resp := InteractionResponse{
		Text:      reply.Text,
		SQL:       reply.SQL,
		AppError:  reply.Err,
		DebugInfo: reply.DebugInfo,
	}

	if c.QueryBool("raw") {
		resp.Raw = reply.Raw
	}

	if stmt := reply.FirstSQL(); stmt != "" {
		resp = s.executeSQL(c, id, stmt, resp)
	}

	return c.JSON(resp)
}

// executeSQL runs the canonical statement through the warehouse and folds the
// outcome into the response. A query failure aborts only the results step.
func (s *Server) executeSQL(c *fiber.Ctx, id, stmt string, resp InteractionResponse) InteractionResponse {
	if s.runner.Disabled() {
		resp.ExecutionDisabled = true
		return resp
	}

	result, err := s.runner.Execute(c.Context(), stmt)
	if err != nil {
		if errors.Is(err, warehouse.ErrDisabled) {
			resp.ExecutionDisabled = true
			return resp
		}

		s.logger.Warn("warehouse execution failed",
			zap.String("session_id", id),
			zap.Error(err),
		)
		resp.QueryError = err.Error()
		return resp
	}

	resp.Results = &QueryResults{
		Columns: result.Columns,
		Rows:    result.Rows,
	}
	return resp
}
