package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/grupo-alfil/crm-backend/internal/directorio"
	"github.com/grupo-alfil/crm-backend/internal/match"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := directorio.Filter{
		Status: q.Get("status"),
		Origin: q.Get("origen"),
		Gender: q.Get("genero"),
		Letter: q.Get("letter"),
		Search: q.Get("search"),
	}
	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	page, err := s.contacts.List(r.Context(), f)
	if err != nil {
		zap.L().Error("api: list contacts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener los contactos")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*directorio.Page
	}{true, page})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.contacts.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		zap.L().Error("api: search contacts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al buscar contactos")
		return
	}
	if contacts == nil {
		contacts = []directorio.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": contacts})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.contacts.Stats(r.Context())
	if err != nil {
		zap.L().Error("api: contact stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener las estadísticas")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request) {
	report, err := s.finder.FindRelationships(r.Context())
	if err != nil {
		zap.L().Error("api: find relationships", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al buscar relaciones")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*match.RelationshipReport
	}{true, report})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID inválido")
		return
	}
	contact, err := s.contacts.Get(r.Context(), id)
	if err != nil {
		zap.L().Error("api: get contact", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener el contacto")
		return
	}
	if contact == nil {
		writeError(w, http.StatusNotFound, "Contacto no encontrado")
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var c directorio.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
		return
	}
	if err := s.contacts.Create(r.Context(), &c); err != nil {
		if errors.Is(err, directorio.ErrNameRequired) {
			writeError(w, http.StatusBadRequest, "El nombre completo es requerido")
			return
		}
		zap.L().Error("api: create contact", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al crear el contacto")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Contacto creado exitosamente",
		"id":      c.ID,
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID inválido")
		return
	}
	var c directorio.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
		return
	}
	c.ID = id
	if err := s.contacts.Update(r.Context(), &c); err != nil {
		switch {
		case errors.Is(err, directorio.ErrNameRequired):
			writeError(w, http.StatusBadRequest, "El nombre completo es requerido")
		case errors.Is(err, directorio.ErrNotFound):
			writeError(w, http.StatusNotFound, "Contacto no encontrado")
		default:
			zap.L().Error("api: update contact", zap.Int64("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Error al actualizar el contacto")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Contacto actualizado exitosamente"})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID inválido")
		return
	}
	if err := s.contacts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, directorio.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contacto no encontrado")
			return
		}
		zap.L().Error("api: delete contact", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al eliminar el contacto")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Contacto eliminado exitosamente"})
}

func (s *Server) handleContactPolicies(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID inválido")
		return
	}
	result, err := s.finder.FindPoliciesForContact(r.Context(), id)
	if err != nil {
		if errors.Is(err, directorio.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contacto no encontrado")
			return
		}
		zap.L().Error("api: contact policies", zap.Int64("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al obtener las pólizas del contacto")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateClientStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.reconciler.Reconcile(r.Context())
	if err != nil {
		zap.L().Error("api: update client status", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al actualizar el estado de los clientes")
		return
	}
	if len(result.UpdatedContactIDs) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":       true,
			"message":       "No contacts need status update",
			"updated_count": 0,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"message":             fmt.Sprintf("Successfully updated %d contacts to client status", result.UpdatedCount),
		"updated_count":       result.UpdatedCount,
		"new_stats":           result.NewStats,
		"updated_contact_ids": result.UpdatedContactIDs,
	})
}
