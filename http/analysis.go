package http

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/fwojciec/tranquility"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type chatRequest struct {
	Message *string `json:"message"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	Mood      string `json:"mood,omitempty"`
	RageMeter *int   `json:"rageMeter,omitempty"`
}

type audioRequest struct {
	Audio    string `json:"audio"`
	MIMEType string `json:"mimeType"`
}

type audioResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(c *gin.Context) {
	text, ok := bindMessage(c)
	if !ok {
		return
	}

	res, err := s.analyzer.Chat(c.Request.Context(), text)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newChatResponse(res))
}

func (s *Server) handleAudio(c *gin.Context) {
	audio, ok := bindAudio(c)
	if !ok {
		return
	}

	res, err := s.analyzer.AnalyzeAudio(c.Request.Context(), audio)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, audioResponse{Reply: res.Text})
}

func newChatResponse(res tranquility.AnalysisResult) chatResponse {
	resp := chatResponse{Reply: res.Text, Mood: res.MoodLabel}
	// The wire range is 1-10. A zero means the reply could not be rated.
	if res.Intensity != nil && *res.Intensity >= 1 {
		v := *res.Intensity
		resp.RageMeter = &v
	}
	return resp
}

// bindMessage reads {"message": string}. It writes a 400 and returns false
// when the field is missing or blank.
func bindMessage(c *gin.Context) (string, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == nil || strings.TrimSpace(*req.Message) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgMissingMessage})
		return "", false
	}
	if err := tranquility.ValidateText(*req.Message); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: tranquility.PublicMessage(err)})
		return "", false
	}
	return *req.Message, true
}

// bindAudio reads {"audio": base64, "mimeType": string}.
func bindAudio(c *gin.Context) (tranquility.Audio, bool) {
	var req audioRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Audio == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgMissingAudio})
		return tranquility.Audio{}, false
	}
	data, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgMissingAudio})
		return tranquility.Audio{}, false
	}
	return tranquility.Audio{MIMEType: req.MIMEType, Data: data}, true
}

// statusFor maps an analysis error onto an HTTP status and public message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, tranquility.ErrValidation):
		return http.StatusBadRequest, tranquility.PublicMessage(err)
	case errors.Is(err, tranquility.ErrEmptyCompletion):
		return http.StatusBadGateway, msgEmptyReply
	case errors.Is(err, tranquility.ErrBusy):
		return http.StatusConflict, tranquility.PublicMessage(err)
	case errors.Is(err, tranquility.ErrSessionClosed):
		return http.StatusGone, tranquility.PublicMessage(err)
	default:
		return http.StatusInternalServerError, msgServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("analysis request failed", zap.String("path", c.FullPath()), zap.Error(cause(err)))
	}
	c.JSON(status, errorResponse{Error: msg})
}

// cause returns the detail hidden behind a sanitized error.
func cause(err error) error {
	var f *tranquility.Failure
	if errors.As(err, &f) && f.Err != nil {
		return f.Err
	}
	return err
}
