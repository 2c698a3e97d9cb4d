package http

import (
	"net/http"
	"time"

	"github.com/fwojciec/tranquility/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type snapshotResponse struct {
	ID        string            `json:"id"`
	Version   uint64            `json:"version"`
	State     string            `json:"state"`
	LastError string            `json:"lastError,omitempty"`
	Messages  []messageResponse `json:"messages"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type messageResponse struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Text      string         `json:"text"`
	Mood      string         `json:"mood,omitempty"`
	Intensity *int           `json:"intensity,omitempty"`
	Style     *styleResponse `json:"style,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

type styleResponse struct {
	Hue        float64 `json:"hue"`
	LightText  bool    `json:"lightText"`
	Background string  `json:"background"`
	Foreground string  `json:"foreground"`
}

type sessionErrorResponse struct {
	Error   string           `json:"error"`
	Session snapshotResponse `json:"session"`
}

func newSnapshotResponse(snap session.Snapshot) snapshotResponse {
	msgs := make([]messageResponse, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		mr := messageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Text:      m.Text,
			Mood:      m.MoodLabel,
			Intensity: m.Intensity,
			CreatedAt: m.CreatedAt,
		}
		if st, ok := m.Style(); ok {
			mr.Style = &styleResponse{
				Hue:        st.Hue,
				LightText:  st.LightText,
				Background: st.Background(),
				Foreground: st.Foreground(),
			}
		}
		msgs = append(msgs, mr)
	}
	return snapshotResponse{
		ID:        snap.ID,
		Version:   snap.Version,
		State:     snap.State.String(),
		LastError: snap.LastError,
		Messages:  msgs,
		UpdatedAt: snap.UpdatedAt,
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.sessions.Create()
	c.JSON(http.StatusCreated, newSnapshotResponse(sess.Snapshot()))
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSnapshotResponse(sess.Snapshot()))
}

func (s *Server) handleSessionMessage(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	text, ok := bindMessage(c)
	if !ok {
		return
	}
	s.respondSubmit(c, sess, sess.Submit(c.Request.Context(), text))
}

func (s *Server) handleSessionAudio(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	audio, ok := bindAudio(c)
	if !ok {
		return
	}
	s.respondSubmit(c, sess, sess.SubmitAudio(c.Request.Context(), audio))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if !s.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) lookup(c *gin.Context) (*session.Session, bool) {
	sess, ok := s.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: msgNotFound})
	}
	return sess, ok
}

func (s *Server) respondSubmit(c *gin.Context, sess *session.Session, err error) {
	snap := newSnapshotResponse(sess.Snapshot())
	if err == nil {
		c.JSON(http.StatusOK, snap)
		return
	}
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("session request failed",
			zap.String("session", sess.ID()), zap.Error(cause(err)))
	}
	c.JSON(status, sessionErrorResponse{Error: msg, Session: snap})
}
