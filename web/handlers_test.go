package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kaundalabs/dumsor/pkg/analyst"
	"github.com/kaundalabs/dumsor/pkg/analyst/envelope"
	"github.com/kaundalabs/dumsor/pkg/logger"
	"github.com/kaundalabs/dumsor/pkg/warehouse"
)

func TestWeb(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Web Suite")
}

// stubAsker replays canned envelope payloads through the real normalizer so
// handler tests exercise the same path production traffic takes.
type stubAsker struct {
	payload  []byte
	sendErr  error
	gotWire  []analyst.Message
	numCalls int
}

func (a *stubAsker) Send(_ context.Context, messages []analyst.Message) (*envelope.Reply, error) {
	a.numCalls++
	a.gotWire = messages
	if a.sendErr != nil {
		return nil, a.sendErr
	}
	return envelope.Normalize(a.payload)
}

// stubRunner is a canned warehouse executor.
type stubRunner struct {
	disabled bool
	result   *warehouse.QueryResult
	execErr  error
	gotStmt  string
}

func (r *stubRunner) Disabled() bool { return r.disabled }

func (r *stubRunner) Execute(_ context.Context, stmt string) (*warehouse.QueryResult, error) {
	r.gotStmt = stmt
	if r.execErr != nil {
		return nil, r.execErr
	}
	return r.result, nil
}

// shapeA is a messages-array reply with one text and one sql item, matching
// the primary interaction scenario.
var shapeA = []byte(`{"messages": [{"role": "assistant", "content": [
	{"type": "text", "text": "Ablekuma leads by a wide margin."},
	{"type": "sql", "sql": "SELECT district, AVG(minutes) FROM outages GROUP BY district ORDER BY 2 DESC LIMIT 10"}
]}]}`)

var _ = Describe("web handlers", func() {
	var (
		server *Server
		asker  *stubAsker
		runner *stubRunner
	)

	BeforeEach(func() {
		asker = &stubAsker{payload: shapeA}
		runner = &stubRunner{disabled: true}
		server = NewServer(Config{ListenAddr: ":0"}, asker, runner, logger.Nop())
	})

	createSession := func() string {
		req, err := http.NewRequest(http.MethodPost, "/api/sessions", nil)
		Expect(err).NotTo(HaveOccurred())

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

		var created CreateSessionResponse
		Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
		Expect(created.SessionID).NotTo(BeEmpty())
		return created.SessionID
	}

	ask := func(id, question string) (*http.Response, InteractionResponse) {
		body, err := json.Marshal(AskRequest{Question: question})
		Expect(err).NotTo(HaveOccurred())

		req, err := http.NewRequest(http.MethodPost, "/api/sessions/"+id+"/messages", bytes.NewReader(body))
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Content-Type", "application/json")

		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())

		var out InteractionResponse
		if resp.StatusCode == fiber.StatusOK {
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
		}
		return resp, out
	}

	Describe("ping", func() {
		It("responds pong", func() {
			req, err := http.NewRequest(http.MethodGet, "/ping", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})
	})

	Describe("index", func() {
		It("serves the chat page", func() {
			req, err := http.NewRequest(http.MethodGet, "/", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			page, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(page)).To(ContainSubstring("Talk to your data"))
		})
	})

	Describe("asking a question", func() {
		It("returns the narrative and SQL with an execution-disabled notice", func() {
			id := createSession()
			resp, out := ask(id, "Top 10 districts by average outage minutes in 2025, verified only")

			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(out.Text).To(Equal("Ablekuma leads by a wide margin."))
			Expect(out.SQL).To(HaveLen(1))
			Expect(out.SQL[0]).To(ContainSubstring("AVG(minutes)"))
			Expect(out.ExecutionDisabled).To(BeTrue())
			Expect(out.Results).To(BeNil())
		})

		It("executes the first SQL statement when the warehouse is configured", func() {
			runner.disabled = false
			runner.result = &warehouse.QueryResult{
				Columns: []string{"DISTRICT", "AVG_MINUTES"},
				Rows:    [][]any{{"Ablekuma", 540.0}},
			}

			id := createSession()
			resp, out := ask(id, "top districts")

			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(runner.gotStmt).To(ContainSubstring("SELECT district"))
			Expect(out.Results).NotTo(BeNil())
			Expect(out.Results.Columns).To(Equal([]string{"DISTRICT", "AVG_MINUTES"}))
			Expect(out.ExecutionDisabled).To(BeFalse())
		})

		It("reports a query failure without dropping narrative or SQL", func() {
			runner.disabled = false
			runner.execErr = &warehouse.QueryError{Message: "permission denied"}

			id := createSession()
			resp, out := ask(id, "top districts")

			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(out.Text).NotTo(BeEmpty())
			Expect(out.SQL).NotTo(BeEmpty())
			Expect(out.QueryError).To(ContainSubstring("permission denied"))
			Expect(out.Results).To(BeNil())
		})

		It("replays the full history on later turns", func() {
			id := createSession()
			_, _ = ask(id, "first question")
			_, _ = ask(id, "second question")

			// user, assistant, user, assistant-pending: the second send
			// carries three prior turns plus the new user turn.
			Expect(asker.numCalls).To(Equal(2))
			Expect(asker.gotWire).To(HaveLen(3))
			Expect(asker.gotWire[0].Role).To(Equal(analyst.RoleUser))
			Expect(asker.gotWire[1].Role).To(Equal(analyst.RoleAssistant))
			Expect(asker.gotWire[2].Role).To(Equal(analyst.RoleUser))
		})

		It("surfaces an application error alongside partial narrative", func() {
			asker.payload = []byte(`{
				"messages": [{"role": "assistant", "content": [{"type": "text", "text": "partial"}]}],
				"error": {"message": "semantic model degraded"}
			}`)

			id := createSession()
			resp, out := ask(id, "anything")

			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(out.Text).To(Equal("partial"))
			Expect(out.AppError).NotTo(BeNil())
			Expect(out.AppError.Message).To(Equal("semantic model degraded"))
		})

		It("renders a transport failure and keeps the user turn in history", func() {
			asker.sendErr = &analyst.TransportError{Status: 500, Body: `{"message":"internal"}`}

			id := createSession()
			resp, _ := ask(id, "doomed question")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadGateway))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("500"))

			turns, err := server.sessions.History(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(turns).To(HaveLen(1))
			Expect(turns[0].Text).To(Equal("doomed question"))
		})

		It("rejects an empty question", func() {
			id := createSession()
			resp, _ := ask(id, "   ")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("404s for an unknown session", func() {
			resp, _ := ask("not-a-session", "hello")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("includes the raw response only when requested", func() {
			id := createSession()

			body, _ := json.Marshal(AskRequest{Question: "q"})
			req, err := http.NewRequest(http.MethodPost, "/api/sessions/"+id+"/messages?raw=true", bytes.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out InteractionResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Raw).NotTo(BeEmpty())

			_, plain := ask(id, "q2")
			Expect(plain.Raw).To(BeEmpty())
		})
	})

	Describe("history", func() {
		It("returns turns in order with the no-narrative placeholder", func() {
			asker.payload = []byte(`{"messages": [{"role": "assistant", "content": [
				{"type": "sql", "sql": "SELECT 1"}
			]}]}`)

			id := createSession()
			_, _ = ask(id, "sql only please")

			req, err := http.NewRequest(http.MethodGet, "/api/sessions/"+id+"/history", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var hist HistoryResponse
			Expect(json.NewDecoder(resp.Body).Decode(&hist)).To(Succeed())
			Expect(hist.Turns).To(HaveLen(2))
			Expect(hist.Turns[0].Text).To(Equal("sql only please"))
			Expect(hist.Turns[1].Text).To(Equal("(no text)"))
			Expect(hist.Turns[1].SQL).To(Equal([]string{"SELECT 1"}))
		})

		It("404s for an unknown session", func() {
			req, err := http.NewRequest(http.MethodGet, "/api/sessions/nope/history", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("ending a session", func() {
		It("deletes the session and its history", func() {
			id := createSession()

			req, err := http.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

			_, err = server.sessions.History(id)
			Expect(err).To(HaveOccurred())
		})

		It("404s for an unknown session", func() {
			req, err := http.NewRequest(http.MethodDelete, "/api/sessions/nope", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})
})

var _ = Describe("sessionManager", func() {
	var m *sessionManager

	BeforeEach(func() {
		m = newSessionManager()
	})

	It("creates distinct sessions", func() {
		a := m.Create()
		b := m.Create()
		Expect(a).NotTo(Equal(b))
	})

	It("allows only one interaction in flight per session", func() {
		id := m.Create()

		_, err := m.Begin(id)
		Expect(err).NotTo(HaveOccurred())

		_, err = m.Begin(id)
		Expect(errors.Is(err, errSessionBusy)).To(BeTrue())

		m.Finish(id)
		_, err = m.Begin(id)
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports unknown sessions", func() {
		_, err := m.Begin("missing")
		Expect(errors.Is(err, errSessionNotFound)).To(BeTrue())
		Expect(m.End("missing")).To(BeFalse())
	})
})
