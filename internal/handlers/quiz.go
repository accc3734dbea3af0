package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillloop/skillloop-backend/internal/services"
)

type QuizHandler struct {
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

func (qh *QuizHandler) Generate(c *gin.Context) {
	quiz, err := qh.quizService.GenerateQuiz(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoChatHistory) {
			RespondError(c, http.StatusBadRequest, "no_history", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "generation_failed", err)
		return
	}
	RespondOK(c, quiz)
}

func (qh *QuizHandler) Submit(c *gin.Context) {
	var req services.QuizSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	result, err := qh.quizService.SubmitQuiz(c.Request.Context(), req)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "submit_failed", err)
		return
	}
	RespondOK(c, result)
}
