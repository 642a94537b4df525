package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizgate/quizgate-backend/internal/middleware"
	"github.com/quizgate/quizgate-backend/internal/response"
	"github.com/quizgate/quizgate-backend/internal/service"
)

// QuizHandler handles the HTTP (non-streaming) quiz endpoints. The engine is
// driven over the WebSocket stream; these endpoints serve the catalog, the
// current snapshot for reconnecting clients, and past results.
type QuizHandler struct {
	quizService    *service.QuizService
	studentService *service.StudentService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, studentService *service.StudentService) *QuizHandler {
	return &QuizHandler{quizService: quizService, studentService: studentService}
}

// GetCategories godoc
// GET /api/v1/student/categories
// Returns the category catalog with the student's best scores.
func (h *QuizHandler) GetCategories(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	categories, err := h.quizService.Categories(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

// GetSession godoc
// GET /api/v1/student/session
// Returns the current session snapshot for view restoration.
func (h *QuizHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	snap := h.quizService.SessionFor(claims.UserID).Snapshot()
	response.Success(c, http.StatusOK, gin.H{"session": snap})
}

// GetResults godoc
// GET /api/v1/student/results?page=1&per_page=10
// Returns the student's completed quiz results, newest first.
func (h *QuizHandler) GetResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}

	results, total, err := h.studentService.Results(c.Request.Context(), claims.UserID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}
