package httpapi

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/olivezebra/mensa-api/internal/app/groups"
	"github.com/olivezebra/mensa-api/internal/app/mensas"
	"github.com/olivezebra/mensa-api/internal/app/users"
	"github.com/olivezebra/mensa-api/internal/domain"
)

// Server holds the use cases behind the HTTP handlers.
type Server struct {
	Mensas *mensas.Service
	Groups *groups.Service
	Users  *users.Service

	logger *zap.Logger
}

func NewServer(mensaSvc *mensas.Service, groupSvc *groups.Service, userSvc *users.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Mensas: mensaSvc,
		Groups: groupSvc,
		Users:  userSvc,
		logger: logger,
	}
}

func (s *Server) ListMensas(w http.ResponseWriter, r *http.Request) {
	ms, err := s.Mensas.ListMensas(r.Context())
	if err != nil {
		writeAppError(w, r, s.logger, err)
		return
	}
	out := ListMensasResponse{Mensas: make([]Mensa, 0, len(ms))}
	for _, m := range ms {
		out.Mensas = append(out.Mensas, mensaFromDomain(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetMensa(w http.ResponseWriter, r *http.Request) {
	id, ok := bindUUIDPath(w, r, "id")
	if !ok {
		return
	}
	m, err := s.Mensas.GetMensa(r.Context(), domain.MensaID(id.String()))
	if err != nil {
		writeAppError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, mensaFromDomain(m))
}

func (s *Server) GetMensaTables(w http.ResponseWriter, r *http.Request) {
	id, ok := bindUUIDPath(w, r, "id")
	if !ok {
		return
	}
	ts, err := s.Mensas.GetTables(r.Context(), domain.MensaID(id.String()))
	if err != nil {
		writeAppError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ListTablesResponse{Tables: tablesFromDomain(ts)})
}

// GetMensaLayout streams the rendered document back with the renderer's content type.
func (s *Server) GetMensaLayout(w http.ResponseWriter, r *http.Request) {
	id, ok := bindUUIDPath(w, r, "id")
	if !ok {
		return
	}
	doc, err := s.Mensas.GetLayout(r.Context(), domain.MensaID(id.String()))
	if err != nil {
		writeAppError(w, r, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, userFromDomain(u))
}

func (s *Server) ListMyGroups(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	gs, err := s.Groups.ListMyGroups(r.Context(), u.ID)
	if err != nil {
		writeAppError(w, r, s.logger, err)
		return
	}
	out := ListGroupsResponse{Groups: make([]Group, 0, len(gs))}
	for _, g := range gs {
		out.Groups = append(out.Groups, groupFromDomain(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetGroup(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := bindUUIDPath(w, r, "id")
	if !ok {
		return
	}
	g, err := s.Groups.GetGroup(r.Context(), domain.GroupID(id.String()), u.ID)
	if err != nil {
		writeAppError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, groupFromDomain(g))
}

func (s *Server) GetGroupSession(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := bindUUIDPath(w, r, "id")
	if !ok {
		return
	}
	sess, err := s.Groups.GetActiveSession(r.Context(), domain.GroupID(id.String()), u.ID)
	if err != nil {
		writeAppError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionFromDomain(sess))
}

// currentUser resolves the authenticated subject; it writes a 401 when that fails.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "missing subject", nil)
		return domain.User{}, false
	}
	u, err := s.Users.Me(r.Context(), sub)
	if err != nil {
		writeAppError(w, r, s.logger, err)
		return domain.User{}, false
	}
	return u, true
}
