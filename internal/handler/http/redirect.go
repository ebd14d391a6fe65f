package http

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"flyra-backend/internal/service"
	"flyra-backend/pkg/useragent"
)

// RedirectHandler translates resolution outcomes into HTTP responses.
type RedirectHandler struct {
	resolver *service.Resolver
	ua       *useragent.Parser
	log      *zap.Logger
}

func NewRedirectHandler(resolver *service.Resolver, ua *useragent.Parser, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		resolver: resolver,
		ua:       ua,
		log:      log,
	}
}

// HandleRedirect resolves the slug in the URL path.
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/")

	// Not a slug: system endpoints live under their own prefixes
	if raw == "" || strings.HasPrefix(raw, "api/") ||
		strings.HasPrefix(raw, "health") || strings.HasPrefix(raw, "ready") {
		http.NotFound(w, r)
		return
	}

	// Slugs may contain percent-encoded unicode (emoji slugs)
	slug, err := url.PathUnescape(raw)
	if err != nil {
		slug = raw
	}

	userAgent := r.UserAgent()
	outcome, err := h.resolver.Resolve(r.Context(), slug, userAgent)
	if err != nil {
		if errors.Is(err, service.ErrStoreUnavailable) {
			h.log.Error("resolution failed, store unavailable", zap.String("slug", slug), zap.Error(err))
			http.Error(w, "Service temporarily unavailable", http.StatusInternalServerError)
			return
		}
		h.log.Error("resolution failed", zap.String("slug", slug), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	switch outcome.Kind {
	case service.OutcomeRedirect:
		device := h.ua.Parse(userAgent)
		h.log.Info("successful redirect",
			zap.String("slug", slug),
			zap.String("url", outcome.URL),
			zap.String("device_type", device.DeviceType),
			zap.String("os", device.OS))
		http.Redirect(w, r, outcome.URL, http.StatusFound)

	case service.OutcomePasswordChallenge:
		h.log.Debug("password challenge", zap.String("slug", slug))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, passwordChallengePage, html.EscapeString(url.PathEscape(slug)))

	default:
		h.log.Debug("slug not found", zap.String("slug", slug))
		http.NotFound(w, r)
	}
}

// Minimal challenge page. The real destination is only disclosed by the
// verify endpoint after a password match.
const passwordChallengePage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Password required</title></head>
<body>
<h1>This link is password protected</h1>
<form id="f">
  <input type="password" name="password" placeholder="Password" required>
  <button type="submit">Unlock</button>
</form>
<p id="err" hidden>Incorrect password</p>
<script>
document.getElementById('f').addEventListener('submit', async function (e) {
  e.preventDefault();
  var resp = await fetch('/api/links/%s/verify', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({password: this.password.value})
  });
  if (resp.ok) {
    var data = await resp.json();
    window.location.href = data.original_url;
  } else {
    document.getElementById('err').hidden = false;
  }
});
</script>
</body>
</html>`
