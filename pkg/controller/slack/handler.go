package slack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/ops-deck/vigil/pkg/utils/async"
	"github.com/slack-go/slack"
)

// Handler handles Slack webhook endpoints. Slash commands must be answered
// within Slack's 3 second deadline, so the handler acknowledges immediately
// and runs the command afterward; outcomes reach the user through channel
// posts or ephemeral messages, never through the HTTP response.
type Handler struct {
	signingSecret string
	commands      *CommandHandler
	now           func() time.Time
}

// NewHandler creates a new Slack webhook handler
func NewHandler(signingSecret string, commands *CommandHandler) *Handler {
	return &Handler{
		signingSecret: signingSecret,
		commands:      commands,
		now:           time.Now,
	}
}

// HandleCommand handles a slash command request
func (h *Handler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		ctxlog.From(r.Context()).Error("Failed to read request body", "error", err)
		h.writeError(w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.verifySignature(r, body); err != nil {
		ctxlog.From(r.Context()).Warn("Invalid Slack signature", "error", err)
		h.writeError(w, goerr.Wrap(err, "invalid signature"), http.StatusUnauthorized)
		return
	}

	// SlashCommandParse consumes the body through ParseForm
	r.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		ctxlog.From(r.Context()).Error("Failed to parse slash command", "error", err)
		h.writeError(w, goerr.Wrap(err, "failed to parse slash command"), http.StatusBadRequest)
		return
	}

	// Acknowledge receipt before processing
	w.WriteHeader(http.StatusOK)

	async.Dispatch(r.Context(), func(ctx context.Context) error {
		return h.commands.Execute(ctx, cmd)
	})
}

// verifySignature verifies the Slack request signature with a 5 minute
// replay window
func (h *Handler) verifySignature(r *http.Request, body []byte) error {
	timestamp := r.Header.Get("X-Slack-Request-Timestamp")
	if timestamp == "" {
		return goerr.New("missing timestamp header")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	if abs(h.now().Unix()-ts) > 60*5 {
		return goerr.New("timestamp too old")
	}

	signature := r.Header.Get("X-Slack-Signature")
	if signature == "" {
		return goerr.New("missing signature header")
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, string(body))
	mac := hmac.New(sha256.New, []byte(h.signingSecret))
	mac.Write([]byte(baseString))
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(signature), []byte(expectedSignature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(map[string]string{
		"error": err.Error(),
	})
}

// abs returns the absolute value of an int64
func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
