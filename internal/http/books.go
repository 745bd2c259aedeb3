package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/wkxuan/booknotes/internal/database/books"
	"github.com/wkxuan/booknotes/internal/database/tags"
	"github.com/wkxuan/booknotes/internal/entities"
)

// BookStore defines the book repository operations the handlers need.
type BookStore interface {
	Create(ctx context.Context, userID uint, in books.BookInput) (*entities.Book, error)
	Update(ctx context.Context, userID, bookID uint, in books.BookInput) (*entities.Book, error)
	Delete(ctx context.Context, userID, bookID uint) error
	GetByID(userID, bookID uint) (*entities.Book, error)
	List(userID uint, sortKey string, page int) ([]entities.Book, int64, error)
	PageSize() int
}

// TagStore defines the tag aggregation operations the handlers need.
type TagStore interface {
	TagCloud(userID uint) ([]tags.TagCount, error)
}

// BooksController serves the per-user book pages and mutations.
type BooksController struct {
	store BookStore
	tags  TagStore
}

// NewBooksController creates a new books controller.
func NewBooksController(store BookStore, tags TagStore) *BooksController {
	return &BooksController{store: store, tags: tags}
}

// RegisterRoutes registers the ownership-guarded book routes.
func (bc *BooksController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", bc.UserPage)
	group.POST("/books", bc.CreateBook)
	group.GET("/books/:id", bc.GetBook)
	group.POST("/books/:id", bc.EditBook)
	group.DELETE("/books/:id", bc.DeleteBook)
}

type bookRequest struct {
	Title    string `json:"title"`
	Rating   int    `json:"rating"`
	Notes    string `json:"notes"`
	Author   string `json:"author"`
	IDScheme string `json:"id_scheme"`
	IDNumber string `json:"id_number"`
	Tags     string `json:"tags"` // '#'-delimited
	CoverURL string `json:"cover_url"`
}

func (r bookRequest) toInput() books.BookInput {
	return books.BookInput{
		Title:    r.Title,
		Rating:   r.Rating,
		Notes:    r.Notes,
		Author:   r.Author,
		IDScheme: r.IDScheme,
		IDNumber: r.IDNumber,
		Tags:     r.Tags,
		CoverURL: r.CoverURL,
	}
}

// UserPage returns one page of the owner's books plus the tag cloud.
// GET /user/:userid?sort=date|rating|title&page=N
func (bc *BooksController) UserPage(c *gin.Context) {
	userID := GetUserID(c)
	sortKey := c.DefaultQuery("sort", "date")
	page := parsePageQuery(c)

	list, total, err := bc.store.List(userID, sortKey, page)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	cloud, err := bc.tags.TagCloud(userID)
	if err != nil {
		respondInternalError(c, err, "tag cloud")
		return
	}

	pageSize := bc.store.PageSize()
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	c.JSON(200, gin.H{
		"books":      list,
		"tags":       cloud,
		"total":      total,
		"page":       page,
		"pageSize":   pageSize,
		"totalPages": totalPages,
		"sort":       sortKey,
	})
}

// CreateBook inserts a new record for the owner.
// POST /user/:userid/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, ErrTypeValidation, "invalid request body")
		return
	}

	book, err := bc.store.Create(c.Request.Context(), GetUserID(c), req.toInput())
	if err != nil {
		if errors.Is(err, books.ErrTitleRequired) {
			respondBadRequest(c, ErrTypeValidation, "there must be a title")
			return
		}
		respondInternalError(c, err, "create book")
		return
	}
	respondCreated(c, book)
}

// GetBook returns a single record with its extended info.
// GET /user/:userid/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.store.GetByID(GetUserID(c), bookID)
	if err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(200, book)
}

// EditBook updates a record in place.
// POST /user/:userid/books/:id
func (bc *BooksController) EditBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, ErrTypeValidation, "invalid request body")
		return
	}

	book, err := bc.store.Update(c.Request.Context(), GetUserID(c), bookID, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, books.ErrTitleRequired):
			respondBadRequest(c, ErrTypeValidation, "there must be a title")
		case errors.Is(err, books.ErrBookNotFound):
			respondNotFound(c, "book")
		default:
			respondInternalError(c, err, "edit book")
		}
		return
	}
	c.JSON(200, book)
}

// DeleteBook removes a record together with its extended info.
// DELETE /user/:userid/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.store.Delete(c.Request.Context(), GetUserID(c), bookID); err != nil {
		if errors.Is(err, books.ErrBookNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}
