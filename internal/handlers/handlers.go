package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library/internal/payment"
	"library/internal/services"
)

type CirculationHandler struct {
	circulation services.CirculationService
	payments    services.PaymentService
	gateway     payment.Gateway
}

// RegisterRoutes mounts the JSON API. The gateway passed here backs the
// status-lookup endpoint; fee payments resolve their gateway through the
// payment service.
func RegisterRoutes(r *gin.Engine, circulation services.CirculationService, payments services.PaymentService, gateway payment.Gateway) {
	h := &CirculationHandler{circulation: circulation, payments: payments, gateway: gateway}

	r.Use(RequestID())

	// Catalog
	r.POST("/books", h.addBook)
	r.GET("/books", h.listBooks)
	r.GET("/books/search", h.searchBooks)

	// Circulation
	r.POST("/borrow", h.borrowBook)
	r.POST("/return", h.returnBook)
	r.GET("/patrons/:id/status", h.patronStatus)

	// Fees
	r.POST("/fees/pay", h.payLateFees)
	r.POST("/fees/refund", h.refundLateFees)
	r.GET("/payments/:id/status", h.paymentStatus)
}

// RequestID tags every response with a correlation id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", uuid.NewString())
		c.Next()
	}
}

type addBookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	TotalCopies int    `json:"total_copies"`
}

func (h *CirculationHandler) addBook(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.circulation.AddBook(req.Title, req.Author, req.ISBN, req.TotalCopies)
	if !res.Success {
		c.JSON(http.StatusBadRequest, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *CirculationHandler) listBooks(c *gin.Context) {
	books, err := h.circulation.ListBooks()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *CirculationHandler) searchBooks(c *gin.Context) {
	query := c.Query("q")
	field := c.DefaultQuery("field", "title")

	books, err := h.circulation.SearchBooks(query, field)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, books)
}

type loanRequest struct {
	PatronID string `json:"patron_id" binding:"required"`
	BookID   uint   `json:"book_id" binding:"required"`
}

func (h *CirculationHandler) borrowBook(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.circulation.BorrowBook(req.PatronID, req.BookID)
	if !res.Success {
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CirculationHandler) returnBook(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.circulation.ReturnBook(req.PatronID, req.BookID)
	if !res.Success {
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CirculationHandler) patronStatus(c *gin.Context) {
	report, err := h.circulation.GetPatronStatusReport(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

type payFeesRequest struct {
	PatronID string `json:"patron_id" binding:"required"`
	BookID   uint   `json:"book_id" binding:"required"`
}

func (h *CirculationHandler) payLateFees(c *gin.Context) {
	var req payFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.payments.PayLateFees(req.PatronID, req.BookID, nil)
	if !res.Success {
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

type refundRequest struct {
	TransactionID string  `json:"transaction_id" binding:"required"`
	Amount        float64 `json:"amount" binding:"required"`
}

func (h *CirculationHandler) refundLateFees(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.payments.RefundLateFeePayment(req.TransactionID, req.Amount, nil)
	if !res.Success {
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CirculationHandler) paymentStatus(c *gin.Context) {
	status, err := h.gateway.VerifyPaymentStatus(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if status.Status == "not_found" {
		c.JSON(http.StatusNotFound, status)
		return
	}
	c.JSON(http.StatusOK, status)
}
