package link

import (
	"fmt"
	"html"
	"net/http"

	svc "github.com/snapcal/registrar/internal/http/services/link"
)

// CallbackController handles GET /v1/link/callback, the provider
// redirect target. The response is a small human-readable page; the
// authoritative result also reaches the user over the notify channel.
type CallbackController struct {
	callback svc.CallbackService
}

// NewCallbackController builds the controller.
func NewCallbackController(callback svc.CallbackService) *CallbackController {
	return &CallbackController{callback: callback}
}

// outcomePages maps every terminal outcome to an HTTP status and the
// sentence shown in the browser.
var outcomePages = map[string]struct {
	status  int
	message string
}{
	svc.OutcomeSuccess:              {http.StatusOK, "Your Google account is linked. You can close this tab and return to Discord."},
	svc.OutcomeAccessDenied:         {http.StatusForbidden, "Sign-in was cancelled. You can close this tab; run !register again when you're ready."},
	svc.OutcomeInvalidState:         {http.StatusBadRequest, "This sign-in link expired or was already used. Run !register to get a fresh one."},
	svc.OutcomeMissingParameters:    {http.StatusBadRequest, "The sign-in response was incomplete. Run !register to try again."},
	svc.OutcomeEmailNotVerified:     {http.StatusForbidden, "Your Google account's email isn't verified. Verify it with Google, then run !register again."},
	svc.OutcomeProcessingFailed:     {http.StatusBadGateway, "Something went wrong while linking your account. Run !register to try again."},
	svc.OutcomeConfigurationMissing: {http.StatusServiceUnavailable, "The server isn't configured for Google sign-in. Please contact the operator."},
}

func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := c.callback.Complete(r.Context(), &svc.CompleteInput{
		Code:          q.Get("code"),
		State:         q.Get("state"),
		ProviderError: q.Get("error"),
	})

	page, ok := outcomePages[res.Outcome]
	if !ok {
		page = outcomePages[svc.OutcomeProcessingFailed]
	}

	title := "Linking failed"
	if res.Outcome == svc.OutcomeSuccess {
		title = "Account linked"
		if res.Email != "" {
			page.message = "Linked " + res.Email + ". You can close this tab and return to Discord."
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(page.status)
	fmt.Fprintf(w, pageTemplate, html.EscapeString(title), html.EscapeString(title), html.EscapeString(page.message))
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: sans-serif; max-width: 40rem; margin: 4rem auto;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>
`
