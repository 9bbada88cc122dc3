package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/chatbook/internal/common"
	"github.com/dmitrijs2005/chatbook/internal/server/session"
	"github.com/gorilla/websocket"
)

// Browsers cannot set headers on a websocket handshake, so a client may
// offer the subprotocols "bearer" and "<access token>" instead.
const bearerSubprotocol = "bearer"

func accessToken(r *http.Request) string {
	if h := r.Header.Get(common.AuthorizationHeaderName); strings.HasPrefix(h, common.BearerPrefix) {
		return strings.TrimPrefix(h, common.BearerPrefix)
	}
	if t := r.URL.Query().Get(common.TokenQueryParam); t != "" {
		return t
	}
	protos := websocket.Subprotocols(r)
	for _, p := range protos {
		if p == bearerSubprotocol {
			for _, t := range protos {
				if t != bearerSubprotocol {
					return t
				}
			}
		}
	}
	return ""
}

// handleChat authenticates before upgrading: the token's identity must match
// the path. The upgraded connection then runs the delivery loop until it ends.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	identity := r.PathValue("username")
	token := accessToken(r)
	if token == "" {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	owner, err := s.users.Authenticate(token)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	if owner != identity {
		writeDetail(w, http.StatusForbidden, "Token does not match user")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "user", identity, "error", err)
		return
	}
	sess := session.NewWSConn(conn, identity, s.opts.WriteTimeout, s.opts.MaxFrameBytes)

	code, reason := websocket.CloseNormalClosure, ""
	if err := s.router.Serve(r.Context(), sess, sess); err != nil {
		s.logger.Error(r.Context(), "session aborted", "user", identity, "session", sess.ID(), "error", err)
		code, reason = session.CloseInternal, "internal error"
	}
	_ = sess.Close(code, reason)
}
